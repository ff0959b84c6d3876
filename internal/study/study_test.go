package study_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/model"
	"github.com/sakif/vocapp/internal/study"
)

func deckOf(n int) *model.Deck {
	words := make([]model.Word, n)
	for i := range words {
		words[i] = model.Word{Word: fmt.Sprintf("w%d", i), Translation: fmt.Sprintf("t%d", i)}
	}
	return &model.Deck{ID: "d1", Name: "Numbers", Words: words}
}

var _ = Describe("Study session", func() {
	Context("starting", func() {
		It("opens on the first card, front side up", func() {
			s, err := study.Start(deckOf(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(study.State{Cursor: 0, Flipped: false, Active: true, Total: 3}))
			Expect(s.IsFirst()).To(BeTrue())
			Expect(s.DeckID()).To(Equal("d1"))
		})

		It("rejects a deck without words", func() {
			_, err := study.Start(&model.Deck{ID: "empty"})
			Expect(err).To(MatchError(apperror.ErrEmptyDeck))

			_, err = study.Start(nil)
			Expect(err).To(MatchError(apperror.ErrEmptyDeck))
		})

		It("is not affected by later changes to the deck", func() {
			deck := deckOf(2)
			s, err := study.Start(deck)
			Expect(err).NotTo(HaveOccurred())

			deck.Words[0].Word = "changed"
			Expect(s.Shown()).To(Equal("w0"))
		})
	})

	Context("next", func() {
		for _, n := range []int{1, 2, 5} {
			It(fmt.Sprintf("walks %d cards then finishes instead of wrapping", n), func() {
				s, _ := study.Start(deckOf(n))
				for i := 0; i < n-1; i++ {
					Expect(s.Next()).To(Succeed())
				}
				Expect(s.State().Cursor).To(Equal(n - 1))
				Expect(s.IsLast()).To(BeTrue())
				Expect(s.State().Active).To(BeTrue())

				Expect(s.Next()).To(Succeed())
				Expect(s.State().Active).To(BeFalse())
				Expect(s.State().Cursor).To(Equal(n-1), "cursor never wraps to 0")
			})
		}

		It("resets the card to its front", func() {
			s, _ := study.Start(deckOf(3))
			Expect(s.Flip()).To(Succeed())
			Expect(s.Next()).To(Succeed())
			Expect(s.State().Flipped).To(BeFalse())
		})
	})

	Context("previous", func() {
		It("is a no-op on the first card", func() {
			s, _ := study.Start(deckOf(3))
			Expect(s.Flip()).To(Succeed())
			before := s.State()

			Expect(s.Previous()).To(Succeed())
			Expect(s.State()).To(Equal(before))
		})

		It("moves back and shows the front", func() {
			s, _ := study.Start(deckOf(3))
			Expect(s.Next()).To(Succeed())
			Expect(s.Flip()).To(Succeed())

			Expect(s.Previous()).To(Succeed())
			Expect(s.State()).To(Equal(study.State{Cursor: 0, Flipped: false, Active: true, Total: 3}))
		})
	})

	Context("flip", func() {
		It("toggles only the flipped flag", func() {
			s, _ := study.Start(deckOf(3))
			Expect(s.Next()).To(Succeed())

			Expect(s.Flip()).To(Succeed())
			Expect(s.State().Cursor).To(Equal(1))
			Expect(s.State().Flipped).To(BeTrue())
			Expect(s.Shown()).To(Equal("t1"))

			Expect(s.Flip()).To(Succeed())
			Expect(s.State().Cursor).To(Equal(1))
			Expect(s.State().Flipped).To(BeFalse())
			Expect(s.Shown()).To(Equal("w1"))
		})
	})

	Context("the hus/bil deck", func() {
		It("shows word, translation, then the second word, then ends", func() {
			s, err := study.Start(&model.Deck{Words: []model.Word{
				{Word: "hus", Translation: "house"},
				{Word: "bil", Translation: "car"},
			}})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Shown()).To(Equal("hus"))

			Expect(s.Flip()).To(Succeed())
			Expect(s.Shown()).To(Equal("house"))

			Expect(s.Next()).To(Succeed())
			Expect(s.State().Cursor).To(Equal(1))
			Expect(s.State().Flipped).To(BeFalse())
			Expect(s.Shown()).To(Equal("bil"))

			Expect(s.Next()).To(Succeed())
			Expect(s.State().Active).To(BeFalse())
		})
	})

	Context("once ended", func() {
		var s *study.Session

		BeforeEach(func() {
			s, _ = study.Start(deckOf(3))
			Expect(s.Next()).To(Succeed())
			Expect(s.Close()).To(Succeed())
		})

		It("refuses every transition and keeps its state", func() {
			before := s.State()
			Expect(before.Active).To(BeFalse())

			Expect(s.Flip()).To(MatchError(apperror.ErrSessionEnded))
			Expect(s.Next()).To(MatchError(apperror.ErrSessionEnded))
			Expect(s.Previous()).To(MatchError(apperror.ErrSessionEnded))
			Expect(s.Close()).To(MatchError(apperror.ErrSessionEnded))
			Expect(s.State()).To(Equal(before))
		})

		It("restarts from the first card in a new session", func() {
			again, err := study.Start(deckOf(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(again.State().Cursor).To(Equal(0))
		})

		It("renders as ended", func() {
			Expect(study.Render(s)).To(Equal("session ended"))
		})
	})

	Context("snapshot", func() {
		It("describes the current card consistently", func() {
			s, _ := study.Start(deckOf(2))
			Expect(s.Flip()).To(Succeed())

			snap := s.Snapshot()
			Expect(snap.State).To(Equal(study.State{Cursor: 0, Flipped: true, Active: true, Total: 2}))
			Expect(snap.Card.Word).To(Equal("w0"))
			Expect(snap.Shown).To(Equal("t0"))
			Expect(snap.IsFirst).To(BeTrue())
			Expect(snap.IsLast).To(BeFalse())
		})

		It("never pairs a cursor with another card under concurrent transitions", func() {
			s, _ := study.Start(deckOf(50))
			done := make(chan struct{})
			go func() {
				defer close(done)
				for i := 0; i < 200; i++ {
					_ = s.Flip()
					if i%2 == 1 {
						_ = s.Next()
					}
				}
			}()

			for i := 0; i < 500; i++ {
				snap := s.Snapshot()
				Expect(snap.Card.Word).To(Equal(fmt.Sprintf("w%d", snap.State.Cursor)))
				if snap.State.Flipped {
					Expect(snap.Shown).To(Equal(fmt.Sprintf("t%d", snap.State.Cursor)))
				} else {
					Expect(snap.Shown).To(Equal(fmt.Sprintf("w%d", snap.State.Cursor)))
				}
				Expect(snap.IsLast).To(Equal(snap.State.Cursor == 49))
			}
			Eventually(done).Should(BeClosed())
		})
	})

	Context("word accuracy", func() {
		It("is left untouched", func() {
			deck := &model.Deck{Words: []model.Word{{Word: "a", Translation: "b", Accuracy: 0.4}}}
			s, _ := study.Start(deck)
			Expect(s.Flip()).To(Succeed())
			Expect(s.Next()).To(Succeed())
			Expect(s.Card().Accuracy).To(Equal(0.4))
			Expect(deck.Words[0].Accuracy).To(Equal(0.4))
		})
	})
})
