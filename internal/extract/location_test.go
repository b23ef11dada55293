package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kscal/internal/lexicon"
	"kscal/internal/tagger"
)

// stubTagger returns a fixed span list, or an error, without any model.
type stubTagger struct {
	spans []tagger.Span
	err   error
}

func (s *stubTagger) Tag(string) ([]tagger.Span, error) {
	return s.spans, s.err
}

func TestSelectorSelect(t *testing.T) {
	sel := NewSelector(lexicon.Default(), nil)

	t.Run("boundary slice beats a bare keyword match", func(t *testing.T) {
		got := sel.Select("내일 오후 3시 2층 회의실에서 팀 회의")
		assert.Equal(t, "2층 회의실", got)
	})

	t.Run("keyword anchored station name", func(t *testing.T) {
		got := sel.Select("모레 저녁 7시 강남역")
		assert.Equal(t, "강남역", got)
	})

	t.Run("purely numeric candidates are dropped", func(t *testing.T) {
		got := sel.Select("오후 3시 12에서 통화")
		assert.Equal(t, "", got)
	})

	t.Run("single-rune candidates are dropped", func(t *testing.T) {
		got := sel.Select("오후 3시 역에서 회의")
		assert.Equal(t, "", got)
	})

	t.Run("non place-like fallback keeps the longest candidate", func(t *testing.T) {
		// 판교 matches no keyword and no suffix but survives filtering.
		got := sel.Select("오후 3시 판교에서 회의")
		assert.Equal(t, "판교", got)
	})

	t.Run("no candidates at all", func(t *testing.T) {
		got := sel.Select("회의")
		assert.Equal(t, "", got)
	})
}

func TestSelectorCandidates(t *testing.T) {
	t.Run("strategy order and dedup", func(t *testing.T) {
		sel := NewSelector(lexicon.Default(), nil)
		pool := sel.Candidates("내일 오후 3시 2층 회의실에서 팀 회의")

		require.NotEmpty(t, pool)
		assert.Equal(t, LocationCandidate{Text: "2층 회의실", Source: "boundary"}, pool[0])
		assert.Contains(t, pool, LocationCandidate{Text: "회의실", Source: "keyword"})
	})

	t.Run("tagger spans join the pool", func(t *testing.T) {
		clause := "판교오피스 3층 미팅"
		tg := &stubTagger{spans: []tagger.Span{
			{Text: "판교오피스", Label: "LC", Start: 0, End: len("판교오피스")},
		}}
		sel := NewSelector(lexicon.Default(), tg)

		pool := sel.Candidates(clause)
		assert.Contains(t, pool, LocationCandidate{Text: "판교오피스 3층", Source: "tagger"})
	})

	t.Run("non-place labels are ignored", func(t *testing.T) {
		tg := &stubTagger{spans: []tagger.Span{
			{Text: "김철수", Label: "PS", Start: 0, End: len("김철수")},
		}}
		sel := NewSelector(lexicon.Default(), tg)

		pool := sel.Candidates("김철수 미팅")
		assert.Empty(t, pool)
	})

	t.Run("tagger failure degrades to the other strategies", func(t *testing.T) {
		tg := &stubTagger{err: assert.AnError}
		sel := NewSelector(lexicon.Default(), tg)

		got := sel.Select("모레 저녁 7시 강남역")
		assert.Equal(t, "강남역", got)
	})
}

func TestSelectorTieBreak(t *testing.T) {
	// Two place-like candidates of equal rune length: the one containing
	// more location keywords must win regardless of pool order.
	lex := &lexicon.Lexicon{
		Location:      []string{"몰"},
		PlaceSuffixes: []string{"센터"},
	}
	clause := "서문센터, 동대문몰"
	tg := &stubTagger{spans: []tagger.Span{
		{Text: "서문센터", Label: "LC", Start: 0, End: len("서문센터")},
		{Text: "동대문몰", Label: "LC", Start: len("서문센터") + 2, End: len(clause)},
	}}
	sel := NewSelector(lex, tg)

	assert.Equal(t, "동대문몰", sel.Select(clause))
}

func TestExtendSpan(t *testing.T) {
	clause := "본사 3층 회의"
	sp := tagger.Span{Text: "본사", Label: "OG", Start: 0, End: len("본사")}

	assert.Equal(t, "본사 3층", extendSpan(clause, sp))

	t.Run("out-of-range end is left alone", func(t *testing.T) {
		bad := tagger.Span{Text: "본사", Label: "OG", Start: 0, End: len(clause) + 10}
		assert.Equal(t, "본사", extendSpan(clause, bad))
	})
}

func TestKeywordCount(t *testing.T) {
	sel := NewSelector(lexicon.Default(), nil)

	// 강남역 itself plus the contained 역 keyword.
	assert.Equal(t, 2, sel.keywordCount("강남역"))
	assert.Equal(t, 2, sel.keywordCount("본사 회의실"))
	assert.Equal(t, 0, sel.keywordCount("판교"))
}
