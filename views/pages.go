package views

import (
	"context"
	"fmt"
	"io"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/a-h/templ"
)

// errWriter keeps the first write error and turns every later write into a no-op.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func page(title string, body templ.ComponentFunc) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		fmt.Fprintf(ew, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title><link rel="stylesheet" href="/static/style.css"></head><body>`, esc(title))
		if user := GetUser(ctx); user != nil {
			fmt.Fprintf(ew, `<header><span>%s</span><form method="post" action="/logout"><button>Log out</button></form></header>`, esc(user.Username))
		}
		if ew.err != nil {
			return ew.err
		}
		if err := body(ctx, ew); err != nil {
			return err
		}
		io.WriteString(ew, `</body></html>`)
		return ew.err
	})
}

func LoginPage(providers []string) templ.Component {
	return page("Log in", func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, `<main class="login"><h1>Tatami</h1>`)
		for _, p := range providers {
			fmt.Fprintf(w, `<a class="button" href="/auth/%s">Continue with %s</a>`, esc(p), esc(p))
		}
		_, err := io.WriteString(w, `<form method="post" action="/auth/guest"><button>Continue as guest</button></form></main>`)
		return err
	})
}

func Index(tournaments []bracket.Tournament) templ.Component {
	return page("Tournaments", func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, `<main><h1>Your tournaments</h1>`)
		if len(tournaments) == 0 {
			io.WriteString(w, `<p>No tournaments yet.</p>`)
		}
		io.WriteString(w, `<ul class="tournaments">`)
		for _, t := range tournaments {
			fmt.Fprintf(w, `<li><a href="/tournaments/%s">%s</a> <span class="status">%s</span> <time>%s</time></li>`,
				t.ID, esc(t.Name), esc(string(t.Status)), t.StartDate.Format("2006-01-02"))
		}
		_, err := io.WriteString(w, `</ul></main>`)
		return err
	})
}

func TournamentPage(t bracket.Tournament, categories []bracket.Category) templ.Component {
	return page(t.Name, func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<main><h1>%s</h1><p>%s, %s, %d tatami</p>`, esc(t.Name), esc(t.Location), esc(string(t.Status)), t.TatamiCount)
		io.WriteString(w, `<table class="categories"><thead><tr><th>Category</th><th>Participants</th><th>Tatami</th><th>Status</th></tr></thead><tbody>`)
		for _, c := range categories {
			tatami := "-"
			if c.Tatami != nil {
				tatami = fmt.Sprint(*c.Tatami)
			}
			status := string(c.Status)
			if !c.Built {
				status = "not built"
			}
			fmt.Fprintf(w, `<tr><td><a href="/tournaments/%s/categories/%s">%s</a></td><td>%d</td><td>%s</td><td>%s</td></tr>`,
				t.ID, c.ID, esc(c.Title), len(c.Participants), tatami, esc(status))
		}
		_, err := io.WriteString(w, `</tbody></table></main>`)
		return err
	})
}

// BracketPage renders one category and reloads itself when the live hub reports a change.
func BracketPage(t bracket.Tournament, c bracket.Category) templ.Component {
	data := PrepareBracketData(c)
	return page(c.Title+" - "+t.Name, func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<main><p><a href="/tournaments/%s">%s</a></p><h1>%s</h1>`, t.ID, esc(t.Name), esc(c.Title))

		if !c.Built {
			fmt.Fprintf(w, `<p>The bracket has not been drawn yet. %d participants are entered.</p>`, len(c.Participants))
		} else {
			fmt.Fprintf(w, `<p class="progress">%d of %d fights played</p>`, data.PlayedCount, data.TotalCount)
		}
		if data.NextFight != nil {
			m := data.NextFight
			fmt.Fprintf(w, `<p class="next">Fight %d: %s vs %s</p>`, m.FightNumber, esc(SlotName(m.Player1)), esc(SlotName(m.Player2)))
		}

		io.WriteString(w, `<div class="bracket">`)
		for _, round := range data.Rounds {
			fmt.Fprintf(w, `<section class="round"><h2>%s</h2>`, esc(round.Name))
			for _, m := range round.Matches {
				writeMatch(w, m)
			}
			if round.Resting != nil {
				fmt.Fprintf(w, `<p class="resting">Resting: %s</p>`, esc(round.Resting.Name))
			}
			io.WriteString(w, `</section>`)
		}
		if data.Bronze != nil {
			io.WriteString(w, `<section class="round bronze"><h2>Bronze</h2>`)
			writeMatch(w, *data.Bronze)
			io.WriteString(w, `</section>`)
		}
		io.WriteString(w, `</div>`)

		if len(data.Standings) > 0 {
			io.WriteString(w, `<table class="standings"><thead><tr><th>#</th><th>Name</th><th>W</th><th>L</th><th>+/-</th></tr></thead><tbody>`)
			for _, s := range data.Standings {
				fmt.Fprintf(w, `<tr><td>%d</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>`,
					s.Place, esc(s.Participant.Name), s.Wins, s.Losses, s.ScoreDifference())
			}
			io.WriteString(w, `</tbody></table>`)
		}

		if len(data.Podium) > 0 {
			io.WriteString(w, `<ol class="podium">`)
			for _, p := range data.Podium {
				fmt.Fprintf(w, `<li class="place-%d">%d. %s</li>`, p.Place, p.Place, esc(SlotName(bracket.FilledSlot(p.Participant))))
			}
			io.WriteString(w, `</ol>`)
		}

		_, err := fmt.Fprintf(w, `</main><script>
const socket = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws/tournaments/%s");
socket.onmessage = (event) => {
  const msg = JSON.parse(event.data);
  if (msg.type === "CATEGORY_UPDATED" && msg.payload && msg.payload.id === "%s") location.reload();
};
</script>`, t.ID, c.ID)
		return err
	})
}

func writeMatch(w io.Writer, m bracket.Match) {
	number := ""
	if m.FightNumber > 0 {
		number = fmt.Sprintf(`<span class="fight">#%d</span>`, m.FightNumber)
	}
	fmt.Fprintf(w, `<div class="%s" data-match="%s">%s<div class="%s">%s</div><div class="%s">%s</div><div class="score">%s</div></div>`,
		MatchClass(m), m.ID, number,
		SideClass(m, bracket.Side1), esc(SlotName(m.Player1)),
		SideClass(m, bracket.Side2), esc(SlotName(m.Player2)),
		esc(Score(m)))
}
