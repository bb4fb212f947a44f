// Package dedupe は正規化URLをキーとした記事候補の重複排除を提供する。
package dedupe

import (
	"github.com/hitoshi/maildigest/internal/model"
)

// Entry は重複排除の入力となる、正規化済みURL付きの候補を表す。
type Entry struct {
	Candidate    model.Candidate
	CanonicalURL string
}

// Merge は全メッセージ横断でプールされた候補を正規化URLごとにまとめ、
// グループ内で最も情報量の多い候補を1件だけ残す。
// 情報量は 2*タイトル長 + スニペット長 で比較し、同点の場合は先に現れた候補を残す。
// 出力の順序は各URLが最初に出現した順を保つ。
func Merge(entries []Entry) []Entry {
	byURL := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))

	for _, e := range entries {
		if e.CanonicalURL == "" {
			continue
		}

		idx, ok := byURL[e.CanonicalURL]
		if !ok {
			byURL[e.CanonicalURL] = len(out)
			out = append(out, e)
			continue
		}

		if richness(e.Candidate) > richness(out[idx].Candidate) {
			out[idx] = e
		}
	}

	return out
}

// richness は候補の情報量の近似値を返す。
func richness(c model.Candidate) int {
	return 2*len([]rune(c.Title)) + len([]rune(c.Snippet))
}
