package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/guildsync/internal/domain/raider"
)

type raiderTableModel struct {
	ID                   int64         `db:"id"`
	ExternalID           sql.NullInt64 `db:"external_id"`
	Name                 string        `db:"name"`
	Realm                string        `db:"realm"`
	Region               string        `db:"region"`
	Class                string        `db:"class"`
	Spec                 string        `db:"spec"`
	Role                 string        `db:"role"`
	Rank                 string        `db:"rank"`
	Status               string        `db:"status"`
	Note                 string        `db:"note"`
	BlizzardID           sql.NullInt64 `db:"blizzard_id"`
	TrackingSince        sql.NullTime  `db:"tracking_since"`
	JoinDate             sql.NullTime  `db:"join_date"`
	BlizzardLastModified sql.NullTime  `db:"blizzard_last_modified"`
	LastSync             time.Time     `db:"last_sync"`
}

func (m raiderTableModel) toDomain() raider.Raider {
	return raider.Raider{
		ID:                   m.ID,
		ExternalID:           nullInt64ToPtr(m.ExternalID),
		Name:                 m.Name,
		Realm:                m.Realm,
		Region:               m.Region,
		Class:                m.Class,
		Spec:                 m.Spec,
		Role:                 m.Role,
		Rank:                 m.Rank,
		Status:               m.Status,
		Note:                 m.Note,
		BlizzardID:           nullInt64ToPtr(m.BlizzardID),
		TrackingSince:        nullTimeToPtr(m.TrackingSince),
		JoinDate:             nullTimeToPtr(m.JoinDate),
		BlizzardLastModified: nullTimeToPtr(m.BlizzardLastModified),
		LastSync:             m.LastSync.UTC(),
	}
}

type raiderWriteModel struct {
	ExternalID           *int64     `db:"external_id"`
	Name                 string     `db:"name"`
	Realm                string     `db:"realm"`
	Region               string     `db:"region"`
	Class                string     `db:"class"`
	Spec                 string     `db:"spec"`
	Role                 string     `db:"role"`
	Rank                 string     `db:"rank"`
	Status               string     `db:"status"`
	Note                 string     `db:"note"`
	BlizzardID           *int64     `db:"blizzard_id"`
	TrackingSince        *time.Time `db:"tracking_since"`
	JoinDate             *time.Time `db:"join_date"`
	BlizzardLastModified *time.Time `db:"blizzard_last_modified"`
	LastSync             time.Time  `db:"last_sync"`
}

func newRaiderWriteModel(item raider.Raider) raiderWriteModel {
	return raiderWriteModel{
		ExternalID:           item.ExternalID,
		Name:                 item.Name,
		Realm:                item.Realm,
		Region:               item.Region,
		Class:                item.Class,
		Spec:                 item.Spec,
		Role:                 item.Role,
		Rank:                 item.Rank,
		Status:               item.Status,
		Note:                 item.Note,
		BlizzardID:           item.BlizzardID,
		TrackingSince:        item.TrackingSince,
		JoinDate:             item.JoinDate,
		BlizzardLastModified: item.BlizzardLastModified,
		LastSync:             item.LastSync,
	}
}

type gearInsertModel struct {
	RaiderID  int64    `db:"raider_id"`
	Variant   string   `db:"variant"`
	Slot      string   `db:"slot"`
	ItemID    *int64   `db:"item_id"`
	ItemLevel *float64 `db:"item_level"`
	Name      string   `db:"name"`
	Quality   *int64   `db:"quality"`
	Enchant   *int64   `db:"enchant"`
	Sockets   *int64   `db:"sockets"`
}

type statisticsInsertModel struct {
	RaiderID        int64    `db:"raider_id"`
	MythicPlusScore *float64 `db:"mythic_plus_score"`
	ItemLevel       *float64 `db:"item_level"`
	WeeklyDungeons  *int64   `db:"weekly_dungeons"`
	WorldQuests     *int64   `db:"world_quests"`
}

type bossScoreInsertModel struct {
	RaiderID   int64    `db:"raider_id"`
	Encounter  string   `db:"encounter"`
	Difficulty string   `db:"difficulty"`
	Percentile *float64 `db:"percentile"`
}

type trackItemInsertModel struct {
	RaiderID int64  `db:"raider_id"`
	Track    string `db:"track"`
	Count    *int64 `db:"count"`
}

type crestInsertModel struct {
	RaiderID int64  `db:"raider_id"`
	Crest    string `db:"crest"`
	Count    *int64 `db:"count"`
}

type vaultSlotInsertModel struct {
	RaiderID  int64  `db:"raider_id"`
	Category  string `db:"category"`
	Slot      int    `db:"slot"`
	ItemLevel *int64 `db:"item_level"`
}

type renownInsertModel struct {
	RaiderID int64  `db:"raider_id"`
	Faction  string `db:"faction"`
	Level    *int64 `db:"level"`
}

type raidProgressInsertModel struct {
	RaiderID   int64  `db:"raider_id"`
	Instance   string `db:"instance"`
	Difficulty string `db:"difficulty"`
	Killed     *int64 `db:"killed"`
	Total      *int64 `db:"total"`
}

type pvpInsertModel struct {
	RaiderID      int64  `db:"raider_id"`
	Bracket       string `db:"bracket"`
	Rating        *int64 `db:"rating"`
	SeasonHighest *int64 `db:"season_highest"`
	Played        *int64 `db:"played"`
	Won           *int64 `db:"won"`
}
