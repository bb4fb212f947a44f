package pipeline

import (
	"strings"

	"github.com/hitoshi/maildigest/internal/model"
)

// ResolveLabel はラベル名の照合を行い、一致したラベルを返す。
// 比較は全空白除去・小文字化した上で、完全一致→前方一致の順。
// 部分一致(contains)は誤ヒットしやすいため行わない。
func ResolveLabel(labels []model.Label, name string) (model.Label, bool) {
	target := normLabelName(name)
	if target == "" {
		return model.Label{}, false
	}

	for _, l := range labels {
		if normLabelName(l.Name) == target {
			return l, true
		}
	}
	for _, l := range labels {
		if strings.HasPrefix(normLabelName(l.Name), target) {
			return l, true
		}
	}
	return model.Label{}, false
}

// normLabelName はラベル名から全ての空白を除去して小文字化する。
func normLabelName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
