package servicemap

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/vaservices/internal/model"
)

// Join left-joins attribute rows onto regions by name. The result has one
// record per region, in region order. When several rows share a key the
// first one wins. Rows whose key names no region are dropped.
func Join(regions []model.Region, attrs []model.AttributeRecord) []model.JoinedRecord {
	byKey := index(attrs)

	joined := make([]model.JoinedRecord, len(regions))
	matched := make(map[string]bool, len(byKey))
	for i, r := range regions {
		jr := model.JoinedRecord{Region: r}
		if a, ok := byKey[strings.TrimSpace(r.Name)]; ok {
			jr.Flags = a.Flags
			jr.Matched = true
			matched[a.Key] = true
		}
		joined[i] = jr
	}

	if dropped := len(byKey) - len(matched); dropped > 0 {
		zap.L().Debug("servicemap: attribute rows without a region",
			zap.Int("dropped", dropped),
		)
	}

	return joined
}

// UnmatchedKeys returns attribute keys that name no region, in row order
// and without repeats.
func UnmatchedKeys(regions []model.Region, attrs []model.AttributeRecord) []string {
	names := make(map[string]bool, len(regions))
	for _, r := range regions {
		names[strings.TrimSpace(r.Name)] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, a := range attrs {
		if names[a.Key] || seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		out = append(out, a.Key)
	}
	return out
}

// index maps each key to its first row and logs the duplicates it ignores.
func index(attrs []model.AttributeRecord) map[string]model.AttributeRecord {
	byKey := make(map[string]model.AttributeRecord, len(attrs))
	for _, a := range attrs {
		if first, ok := byKey[a.Key]; ok {
			zap.L().Warn("servicemap: duplicate attribute key, keeping first row",
				zap.String("key", a.Key),
				zap.Int("kept_row", first.Row),
				zap.Int("ignored_row", a.Row),
			)
			continue
		}
		byKey[a.Key] = a
	}
	return byKey
}
