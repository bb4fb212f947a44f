package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/maildigest/internal/model"
)

// Config は抽出時の調整パラメータ。
type Config struct {
	MinTitleLength int
	SnippetMaxLen  int
}

// Strategy は単一の抽出手法を表す。候補が見つからない場合はnilを返す。
type Strategy interface {
	Name() string
	Extract(email model.DecodedEmail, cfg Config) []model.Candidate
}

// Extractor は複数のStrategyを優先順に試し、最初に候補を返した
// 手法の結果を採用する。後続の手法は評価しない。
type Extractor struct {
	strategies []Strategy
}

// NewExtractor はHTML抽出を優先し、プレーンテキスト抽出に
// フォールバックする既定のExtractorを返す。
func NewExtractor() *Extractor {
	return &Extractor{
		strategies: []Strategy{
			&htmlStrategy{},
			&textStrategy{},
		},
	}
}

// Extract は各Strategyを順に適用し、最初の非空の結果を返す。
// どの手法も候補を見つけられなかった場合はnilを返す。
func (e *Extractor) Extract(email model.DecodedEmail, cfg Config) ([]model.Candidate, string) {
	for _, s := range e.strategies {
		if candidates := s.Extract(email, cfg); len(candidates) > 0 {
			return candidates, s.Name()
		}
	}
	return nil, ""
}

// buttonPhrases はタイトルとして不適切なナビゲーション文言。
// 完全一致で比較する(部分一致にすると正当なタイトルを巻き込む)。
var buttonPhrases = []string{
	"read more", "learn more", "more",
	"보기", "자세히", "더보기", "확인",
	"open", "click", "go", "view", "continue",
	"신청", "구독", "수신거부", "unsubscribe",
}

// looksLikeButton はテキストがボタン・ナビゲーション文言かどうかを判定する。
func looksLikeButton(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range buttonPhrases {
		if lowered == phrase {
			return true
		}
	}
	return false
}

// truncateRunes は文字列をrune数でmaxまで切り詰める。
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
