package score

import (
	"testing"

	"github.com/hitoshi/maildigest/internal/model"
)

func TestScore_TrustedDomainRanksHigher(t *testing.T) {
	trusted := model.Article{
		Title:        "Central bank raises rates again",
		CanonicalURL: "https://reuters.com/markets/rates-decision",
		Host:         "reuters.com",
	}
	unlisted := model.Article{
		Title:        "Central bank raises rates again",
		CanonicalURL: "https://unlisted-blog.example/markets/rates-decision",
		Host:         "unlisted-blog.example",
	}

	if Score(trusted, "") <= Score(unlisted, "") {
		t.Errorf("trusted domain should rank strictly higher: trusted=%v unlisted=%v",
			Score(trusted, ""), Score(unlisted, ""))
	}
}

func TestScore_MediumTier(t *testing.T) {
	medium := model.Article{Title: "a story title here", Host: "medium.com", CanonicalURL: "https://medium.com/x/y"}
	none := model.Article{Title: "a story title here", Host: "blog.example", CanonicalURL: "https://blog.example/x/y"}
	strong := model.Article{Title: "a story title here", Host: "bbc.com", CanonicalURL: "https://bbc.com/x/y"}

	sMedium, sNone, sStrong := Score(medium, ""), Score(none, ""), Score(strong, "")
	if !(sStrong > sMedium && sMedium > sNone) {
		t.Errorf("tier ordering broken: strong=%v medium=%v none=%v", sStrong, sMedium, sNone)
	}
}

func TestScore_SubdomainOfTrustedDomainCounts(t *testing.T) {
	sub := model.Article{Title: "some article title", Host: "www.reuters.com", CanonicalURL: "https://www.reuters.com/a/b"}
	lookalike := model.Article{Title: "some article title", Host: "notreuters.com", CanonicalURL: "https://notreuters.com/a/b"}

	if Score(sub, "") <= Score(lookalike, "") {
		t.Error("subdomain of a trusted domain should score the trust bonus; a lookalike should not")
	}
}

func TestScore_KeywordHintBonus(t *testing.T) {
	a := model.Article{Title: "Semiconductor exports surge in Q3", Host: "example.com", CanonicalURL: "https://example.com/a/b"}

	with := Score(a, "semiconductor")
	without := Score(a, "shipping")
	if with <= without {
		t.Errorf("keyword hint in title should add a bonus: with=%v without=%v", with, without)
	}
}

func TestScore_URLShapeBonuses(t *testing.T) {
	shaped := model.Article{
		Title:        "some article title",
		CanonicalURL: "https://example.com/news/2025/economy/story-slug",
		Host:         "example.com",
	}
	flat := model.Article{
		Title:        "some article title",
		CanonicalURL: "https://example.com/p1",
		Host:         "example.com",
	}

	if Score(shaped, "") <= Score(flat, "") {
		t.Error("article-shaped path should score higher than a flat path")
	}
}

func TestScore_TitleLengthClamped(t *testing.T) {
	long := make([]rune, 500)
	for i := range long {
		long[i] = 'a'
	}
	a := model.Article{Title: string(long), Host: "example.com", CanonicalURL: "https://example.com/x/y"}
	b := model.Article{Title: string(long[:120]), Host: "example.com", CanonicalURL: "https://example.com/x/y"}

	if Score(a, "") != Score(b, "") {
		t.Errorf("title term should be clamped at 120 runes: %v != %v", Score(a, ""), Score(b, ""))
	}
}

func TestRank_DescendingAndStable(t *testing.T) {
	articles := []model.Article{
		{Title: "plain story number one", Host: "example.com", CanonicalURL: "https://example.com/a/b"},
		{Title: "trusted wire story here", Host: "reuters.com", CanonicalURL: "https://reuters.com/a/b"},
		{Title: "plain story number one", Host: "example.org", CanonicalURL: "https://example.org/a/b"},
	}

	ranked := Rank(articles, "")
	if ranked[0].Host != "reuters.com" {
		t.Errorf("ranked[0].Host = %q, want reuters.com", ranked[0].Host)
	}
	// 同点の2件は入力順を保つ
	if ranked[1].Host != "example.com" || ranked[2].Host != "example.org" {
		t.Errorf("stable order broken: %q, %q", ranked[1].Host, ranked[2].Host)
	}

	for i := range ranked {
		if ranked[i].Score == 0 {
			t.Errorf("ranked[%d] has no score assigned", i)
		}
	}

	// 入力スライスは変更しない
	if articles[0].Score != 0 {
		t.Error("Rank mutated its input slice")
	}
}
