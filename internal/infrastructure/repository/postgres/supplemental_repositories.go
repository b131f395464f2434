package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/guildsync/internal/domain/activity"
	"github.com/riskibarqy/guildsync/internal/domain/application"
	"github.com/riskibarqy/guildsync/internal/domain/attendance"
	"github.com/riskibarqy/guildsync/internal/domain/guest"
	"github.com/riskibarqy/guildsync/internal/domain/raid"
	qb "github.com/riskibarqy/guildsync/internal/platform/querybuilder"
)

type AttendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) ReplaceAll(ctx context.Context, stats []attendance.Stat) error {
	rows := make([]attendanceInsertModel, 0, len(stats))
	for _, stat := range stats {
		rows = append(rows, attendanceInsertModel{
			CharacterExternalID: stat.CharacterExternalID,
			Name:                stat.Name,
			Realm:               stat.Realm,
			Percentage:          stat.Percentage,
			Attended:            stat.Attended,
			Total:               stat.Total,
		})
	}
	return withTx(ctx, r.db, "replace attendance", func(tx *sqlx.Tx) error {
		if err := deleteWhere(ctx, tx, "attendance_stats"); err != nil {
			return err
		}
		return insertModels(ctx, tx, "attendance_stats", rows)
	})
}

type RaidRepository struct {
	db *sqlx.DB
}

func NewRaidRepository(db *sqlx.DB) *RaidRepository {
	return &RaidRepository{db: db}
}

func (r *RaidRepository) Upsert(ctx context.Context, item raid.Raid) error {
	return withTx(ctx, r.db, "upsert raid", func(tx *sqlx.Tx) error {
		raidID, err := insertReturningID(ctx, tx, "raids", raidInsertModel{
			ExternalID:  item.ExternalID,
			Date:        item.Date,
			StartTime:   item.StartTime,
			EndTime:     item.EndTime,
			Instance:    item.Instance,
			Difficulty:  item.Difficulty,
			Status:      item.Status,
			Optional:    item.Optional,
			PresentSize: item.PresentSize,
			TotalSize:   item.TotalSize,
			Notes:       item.Notes,
		}, `ON CONFLICT (external_id) DO UPDATE SET
    raid_date = EXCLUDED.raid_date,
    start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time,
    instance = EXCLUDED.instance,
    difficulty = EXCLUDED.difficulty,
    status = EXCLUDED.status,
    optional = EXCLUDED.optional,
    present_size = EXCLUDED.present_size,
    total_size = EXCLUDED.total_size,
    notes = EXCLUDED.notes,
    synced_at = NOW()`)
		if err != nil {
			return err
		}

		if err := deleteWhere(ctx, tx, "raid_signups", qb.Eq("raid_id", raidID)); err != nil {
			return err
		}
		if err := deleteWhere(ctx, tx, "raid_encounters", qb.Eq("raid_id", raidID)); err != nil {
			return err
		}

		signups := make([]raidSignupInsertModel, 0, len(item.Signups))
		for _, signup := range item.Signups {
			signups = append(signups, raidSignupInsertModel{
				RaidID:              raidID,
				CharacterExternalID: signup.CharacterExternalID,
				Name:                signup.Name,
				Realm:               signup.Realm,
				Class:               signup.Class,
				Role:                signup.Role,
				Status:              signup.Status,
				Comment:             signup.Comment,
				Selected:            signup.Selected,
			})
		}
		if err := insertModels(ctx, tx, "raid_signups", signups); err != nil {
			return err
		}

		encounters := make([]raidEncounterInsertModel, 0, len(item.Encounters))
		for _, encounter := range item.Encounters {
			encounters = append(encounters, raidEncounterInsertModel{
				RaidID:   raidID,
				Position: encounter.Position,
				Name:     encounter.Name,
				Enabled:  encounter.Enabled,
				Extra:    encounter.Extra,
				Notes:    encounter.Notes,
			})
		}
		return insertModels(ctx, tx, "raid_encounters", encounters)
	})
}

type ActivityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) ReplaceForPeriod(ctx context.Context, periodID int64, entries []activity.Entry) error {
	return r.replace(ctx, qb.Eq("period_id", periodID), entries)
}

func (r *ActivityRepository) ReplaceForCharacter(ctx context.Context, characterExternalID int64, entries []activity.Entry) error {
	return r.replace(ctx, qb.Eq("character_external_id", characterExternalID), entries)
}

func (r *ActivityRepository) replace(ctx context.Context, scope qb.Condition, entries []activity.Entry) error {
	rows := make([]activityInsertModel, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, activityInsertModel{
			PeriodID:            entry.PeriodID,
			CharacterExternalID: entry.CharacterExternalID,
			Name:                entry.Name,
			Realm:               entry.Realm,
			DungeonsDone:        entry.DungeonsDone,
			WorldQuests:         entry.WorldQuests,
			VaultSlots:          entry.VaultSlots,
			Data:                nullableString(entry.DataJSON),
		})
	}
	return withTx(ctx, r.db, "replace historical activity", func(tx *sqlx.Tx) error {
		if err := deleteWhere(ctx, tx, "historical_activity", scope); err != nil {
			return err
		}
		return insertModels(ctx, tx, "historical_activity", rows)
	})
}

type GuestRepository struct {
	db *sqlx.DB
}

func NewGuestRepository(db *sqlx.DB) *GuestRepository {
	return &GuestRepository{db: db}
}

func (r *GuestRepository) ReplaceAll(ctx context.Context, items []guest.Guest) error {
	rows := make([]guestInsertModel, 0, len(items))
	for _, item := range items {
		rows = append(rows, guestInsertModel{
			ExternalID: item.ExternalID,
			Name:       item.Name,
			Realm:      item.Realm,
			Class:      item.Class,
			Role:       item.Role,
			Note:       item.Note,
		})
	}
	return withTx(ctx, r.db, "replace guests", func(tx *sqlx.Tx) error {
		if err := deleteWhere(ctx, tx, "guests"); err != nil {
			return err
		}
		return insertModels(ctx, tx, "guests", rows)
	})
}

type ApplicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Upsert(ctx context.Context, item application.Application) error {
	return withTx(ctx, r.db, "upsert application", func(tx *sqlx.Tx) error {
		applicationID, err := insertReturningID(ctx, tx, "applications", applicationInsertModel{
			ExternalID: item.ExternalID,
			Name:       item.Name,
			Realm:      item.Realm,
			Region:     item.Region,
			Class:      item.Class,
			Role:       item.Role,
			Status:     item.Status,
			Message:    item.Message,
			DiscordID:  item.DiscordID,
			BattleTag:  item.BattleTag,
			AppliedAt:  item.AppliedAt,
		}, `ON CONFLICT (external_id) DO UPDATE SET
    name = EXCLUDED.name,
    realm = EXCLUDED.realm,
    region = EXCLUDED.region,
    class = EXCLUDED.class,
    role = EXCLUDED.role,
    status = EXCLUDED.status,
    message = EXCLUDED.message,
    discord_id = EXCLUDED.discord_id,
    battle_tag = EXCLUDED.battle_tag,
    applied_at = EXCLUDED.applied_at,
    synced_at = NOW()`)
		if err != nil {
			return err
		}

		if err := deleteWhere(ctx, tx, "application_alts", qb.Eq("application_id", applicationID)); err != nil {
			return err
		}
		if err := deleteWhere(ctx, tx, "application_questions", qb.Eq("application_id", applicationID)); err != nil {
			return err
		}

		alts := make([]applicationAltInsertModel, 0, len(item.Alts))
		for _, alt := range item.Alts {
			alts = append(alts, applicationAltInsertModel{ApplicationID: applicationID, Name: alt.Name, Realm: alt.Realm, Class: alt.Class})
		}
		if err := insertModels(ctx, tx, "application_alts", alts); err != nil {
			return err
		}

		for _, question := range item.Questions {
			questionID, err := insertReturningID(ctx, tx, "application_questions", applicationQuestionInsertModel{
				ApplicationID: applicationID,
				Position:      question.Position,
				Question:      question.Question,
				Answer:        question.Answer,
			}, "")
			if err != nil {
				return err
			}
			files := make([]applicationFileInsertModel, 0, len(question.Files))
			for _, file := range question.Files {
				files = append(files, applicationFileInsertModel{QuestionID: questionID, Name: file.Name, URL: file.URL})
			}
			if err := insertModels(ctx, tx, "application_question_files", files); err != nil {
				return err
			}
		}
		return nil
	})
}

type attendanceInsertModel struct {
	CharacterExternalID *int64   `db:"character_external_id"`
	Name                string   `db:"name"`
	Realm               string   `db:"realm"`
	Percentage          *float64 `db:"percentage"`
	Attended            *int64   `db:"attended"`
	Total               *int64   `db:"total"`
}

type raidInsertModel struct {
	ExternalID  int64      `db:"external_id"`
	Date        *time.Time `db:"raid_date"`
	StartTime   string     `db:"start_time"`
	EndTime     string     `db:"end_time"`
	Instance    string     `db:"instance"`
	Difficulty  string     `db:"difficulty"`
	Status      string     `db:"status"`
	Optional    *bool      `db:"optional"`
	PresentSize *int64     `db:"present_size"`
	TotalSize   *int64     `db:"total_size"`
	Notes       string     `db:"notes"`
}

type raidSignupInsertModel struct {
	RaidID              int64  `db:"raid_id"`
	CharacterExternalID *int64 `db:"character_external_id"`
	Name                string `db:"name"`
	Realm               string `db:"realm"`
	Class               string `db:"class"`
	Role                string `db:"role"`
	Status              string `db:"status"`
	Comment             string `db:"comment"`
	Selected            *bool  `db:"selected"`
}

type raidEncounterInsertModel struct {
	RaidID   int64  `db:"raid_id"`
	Position int    `db:"position"`
	Name     string `db:"name"`
	Enabled  *bool  `db:"enabled"`
	Extra    *bool  `db:"extra"`
	Notes    string `db:"notes"`
}

type activityInsertModel struct {
	PeriodID            *int64  `db:"period_id"`
	CharacterExternalID *int64  `db:"character_external_id"`
	Name                string  `db:"name"`
	Realm               string  `db:"realm"`
	DungeonsDone        *int64  `db:"dungeons_done"`
	WorldQuests         *int64  `db:"world_quests"`
	VaultSlots          *int64  `db:"vault_slots"`
	Data                *string `db:"data"`
}

type guestInsertModel struct {
	ExternalID *int64 `db:"external_id"`
	Name       string `db:"name"`
	Realm      string `db:"realm"`
	Class      string `db:"class"`
	Role       string `db:"role"`
	Note       string `db:"note"`
}

type applicationInsertModel struct {
	ExternalID int64      `db:"external_id"`
	Name       string     `db:"name"`
	Realm      string     `db:"realm"`
	Region     string     `db:"region"`
	Class      string     `db:"class"`
	Role       string     `db:"role"`
	Status     string     `db:"status"`
	Message    string     `db:"message"`
	DiscordID  string     `db:"discord_id"`
	BattleTag  string     `db:"battle_tag"`
	AppliedAt  *time.Time `db:"applied_at"`
}

type applicationAltInsertModel struct {
	ApplicationID int64  `db:"application_id"`
	Name          string `db:"name"`
	Realm         string `db:"realm"`
	Class         string `db:"class"`
}

type applicationQuestionInsertModel struct {
	ApplicationID int64  `db:"application_id"`
	Position      int    `db:"position"`
	Question      string `db:"question"`
	Answer        string `db:"answer"`
}

type applicationFileInsertModel struct {
	QuestionID int64  `db:"question_id"`
	Name       string `db:"name"`
	URL        string `db:"url"`
}
