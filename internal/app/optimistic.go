package app

import (
	"context"
	"strings"

	"github.com/TobiSchelling/PaperPilot/internal/api"
)

// toggleFavorite flips the favorite flag and patches only what is shown:
// the icon, and on the favorites view the removed card.
func (c *Controller) toggleFavorite(ctx context.Context, id string) error {
	if id == "" {
		id = c.Snapshot().ArticleID
	}
	if id == "" {
		return nil
	}
	favorited, err := c.api.ToggleFavorite(ctx, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.surface.SetFavorite(id, favorited)
	if a := c.state.Article; a != nil && a.ID.String() == id {
		a.IsFavorited = favorited
	}
	for i := range c.state.Articles {
		if c.state.Articles[i].ID.String() != id {
			continue
		}
		if c.state.View == ViewFavorites && !favorited {
			c.state.Articles = append(c.state.Articles[:i], c.state.Articles[i+1:]...)
			c.surface.RemoveCard(id)
		} else {
			c.state.Articles[i].IsFavorited = favorited
		}
		break
	}
	return nil
}

// askQuestion shows the question before the call resolves and keeps the
// input disabled while it is in flight. A submit while busy is ignored,
// even after navigating away and back.
func (c *Controller) askQuestion(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	c.mu.Lock()
	if c.state.View != ViewDetail || c.state.Article == nil || c.state.Tab != TabQna {
		c.mu.Unlock()
		return ErrNoQuestionInput
	}
	if c.state.Qna.Busy() {
		c.mu.Unlock()
		return nil
	}
	id := c.state.ArticleID
	gen := c.generation
	c.state.Qna = QnaState{Pending: question, ArticleID: id}
	c.surface.AppendTranscript(RoleQuestion, question)
	c.surface.SetQuestionInput(false, false)
	c.mu.Unlock()

	answer, err := c.api.Ask(ctx, id, question)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Qna = QnaState{}
	a := c.state.Article
	if a == nil || c.state.View != ViewDetail || c.state.ArticleID != id {
		// Navigated elsewhere; the next detail render fetches the answer.
		return err
	}
	if gen != c.generation {
		// The article was rendered again while the question was in flight.
		// That render lacks the exchange, so redraw the whole transcript.
		if err == nil && !hasExchange(a.QnaHistory, question, answer) {
			a.QnaHistory = append(a.QnaHistory, api.QnA{Question: question, Answer: answer})
		}
		if c.state.Tab == TabQna {
			c.surface.PresentTab(BuildTabBody(TabQna, a, c.api))
			c.surface.RenderMath(RegionTab)
			c.surface.SetQuestionInput(true, true)
		}
		return err
	}
	if err == nil {
		a.QnaHistory = append(a.QnaHistory, api.QnA{Question: question, Answer: answer})
		if c.state.Tab == TabQna {
			c.surface.AppendTranscript(RoleAnswer, answer)
			c.surface.RenderMath(RegionTab)
		}
	}
	c.surface.SetQuestionInput(true, true)
	return err
}

func hasExchange(history []api.QnA, question, answer string) bool {
	n := len(history)
	return n > 0 && history[n-1].Question == question && history[n-1].Answer == answer
}
