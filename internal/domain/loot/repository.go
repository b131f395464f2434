package loot

import "context"

type Repository interface {
	// ReplaceAll drops every stored award with its bonus, old-item and wish
	// rows, then stores awards.
	ReplaceAll(ctx context.Context, awards []Award) error
}
