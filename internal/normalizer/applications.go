package normalizer

import (
	"context"

	"github.com/riskibarqy/guildsync/internal/domain/application"
	"github.com/riskibarqy/guildsync/internal/platform/jsontree"
)

// ApplicationDetail normalizes one recruitment application.
func (n *Normalizer) ApplicationDetail(ctx context.Context, raw []byte, fallbackID int64, defaults Defaults) (application.Application, bool) {
	root, ok := n.object(ctx, PayloadApplication, raw, "application")
	if !ok {
		return application.Application{}, false
	}

	ref := characterRef(root, defaults, "character_id")
	item := application.Application{
		ExternalID: fallbackID,
		Name:       ref.Name,
		Realm:      ref.Realm,
		Region:     ref.Region,
		Class:      firstText(label(root, "class"), label(root.Get("character"), "class")),
		Role:       firstText(label(root, "role"), label(root.Get("character"), "role")),
		Status:     label(root, "status"),
		Message:    textAny(root, "message", "introduction"),
		DiscordID:  textAny(root, "discord_id", "discord"),
		BattleTag:  textAny(root, "battle_tag", "battletag"),
		AppliedAt:  root.TimeAny(jsontree.Keys("applied_at", "created_at", "date")...),
	}
	if id := root.Int("id"); id != nil {
		item.ExternalID = *id
	}

	for idx, alt := range root.Lookup(jsontree.Keys("alts", "alt_characters")...).Items() {
		name := textAny(alt, "name")
		if name == "" {
			n.skip(ctx, PayloadApplication, idx, "alt has no name", nil)
			continue
		}
		item.Alts = append(item.Alts, application.Alt{
			Name:  name,
			Realm: firstText(textAny(alt, "realm"), defaults.Realm),
			Class: label(alt, "class"),
		})
	}

	for idx, q := range root.Lookup(jsontree.Keys("questions", "answers")...).Items() {
		question := textAny(q, "question", "title")
		if question == "" {
			n.skip(ctx, PayloadApplication, idx, "question has no text", nil)
			continue
		}
		entry := application.Question{
			Position: len(item.Questions) + 1,
			Question: question,
			Answer:   textAny(q, "answer", "response"),
		}
		for _, file := range q.Lookup(jsontree.Keys("files", "attachments")...).Items() {
			url := textAny(file, "url", "link")
			if url == "" {
				url = stringValue(file)
			}
			if url == "" {
				continue
			}
			entry.Files = append(entry.Files, application.File{Name: textAny(file, "name", "filename"), URL: url})
		}
		item.Questions = append(item.Questions, entry)
	}
	return item, true
}

func stringValue(node jsontree.Node) string {
	if v := node.AsString(); v != nil {
		return *v
	}
	return ""
}
