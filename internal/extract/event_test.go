package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kscal/internal/lexicon"
	"kscal/internal/model"
	"kscal/internal/tagger"
)

func TestLabelerLabel(t *testing.T) {
	t.Run("residual text wins verbatim", func(t *testing.T) {
		l := NewLabeler(lexicon.Default(), nil)
		got := l.Label("내일 오후 3시 2층 회의실에서 팀 회의", "팀 회의")
		assert.Equal(t, "팀 회의", got)
	})

	t.Run("whitespace-only residual falls through", func(t *testing.T) {
		l := NewLabeler(lexicon.Default(), nil)
		got := l.Label("내일 오후 3시 점심 먹기", "   ")
		assert.Equal(t, "점심", got)
	})

	t.Run("first event keyword in lexicon order", func(t *testing.T) {
		l := NewLabeler(lexicon.Default(), nil)
		// The clause contains both 저녁 and 식사; 저녁 comes first in the list.
		got := l.Label("모레 저녁 7시 강남역 식사", "")
		assert.Equal(t, "저녁", got)
	})

	t.Run("last noun span from the tagger", func(t *testing.T) {
		tg := &stubTagger{spans: []tagger.Span{
			{Text: "분기보고", Label: "EVT"},
			{Text: "김철수", Label: "PS"},
			{Text: "마감", Label: "TRM"},
		}}
		l := NewLabeler(lexicon.Default(), tg)
		got := l.Label("내일 오전 9시 분기보고 마감", "")
		assert.Equal(t, "마감", got)
	})

	t.Run("tagger failure still yields the fallback", func(t *testing.T) {
		l := NewLabeler(lexicon.Default(), &stubTagger{err: assert.AnError})
		got := l.Label("내일 오전 9시", "")
		assert.Equal(t, model.DefaultEventLabel, got)
	})

	t.Run("fixed fallback without any signal", func(t *testing.T) {
		l := NewLabeler(lexicon.Default(), nil)
		got := l.Label("내일 오전 9시", "")
		assert.Equal(t, model.DefaultEventLabel, got)
	})
}
