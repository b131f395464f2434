package normalizer

import (
	"context"

	"github.com/riskibarqy/guildsync/internal/domain/attendance"
	"github.com/riskibarqy/guildsync/internal/platform/jsontree"
)

func (n *Normalizer) Attendance(ctx context.Context, raw []byte, defaults Defaults) ([]attendance.Stat, bool) {
	items, ok := n.records(ctx, PayloadAttendance, raw, "characters", "attendance", "data")
	if !ok {
		return nil, false
	}
	out := make([]attendance.Stat, 0, len(items))
	for idx, item := range items {
		if !item.IsObject() {
			n.skip(ctx, PayloadAttendance, idx, "record is not an object", nil)
			continue
		}
		ref := characterRef(item, defaults, "id", "character_id")
		if err := n.check(characterCheck{ExternalID: ref.ExternalID, Name: ref.Name}); err != nil {
			n.skip(ctx, PayloadAttendance, idx, "attendance has no character", err)
			continue
		}
		out = append(out, attendance.Stat{
			CharacterExternalID: ref.ExternalID,
			Name:                ref.Name,
			Realm:               ref.Realm,
			Percentage:          item.FloatAny(jsontree.Keys("attendance_percentage", "percentage", "attendance")...),
			Attended:            item.IntAny(jsontree.Keys("raids_attended", "attended", "present")...),
			Total:               item.IntAny(jsontree.Keys("raids_total", "total_raids", "total")...),
		})
	}
	return out, true
}
