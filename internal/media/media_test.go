package media

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestClockPlayer_AdvancesOnlyWhilePlaying(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	p := newClockPlayer(0, clk.now)

	clk.advance(3 * time.Second)
	if got := p.Position(); got != 0 {
		t.Errorf("paused position = %v, want 0", got)
	}

	p.Play()
	clk.advance(2500 * time.Millisecond)
	if got := p.Position(); got != 2.5 {
		t.Errorf("position = %v, want 2.5", got)
	}

	p.Pause()
	clk.advance(10 * time.Second)
	if got := p.Position(); got != 2.5 {
		t.Errorf("position after pause = %v, want 2.5", got)
	}
}

func TestClockPlayer_SeekWhilePlaying(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	p := newClockPlayer(0, clk.now)
	p.Play()
	clk.advance(5 * time.Second)

	p.Seek(28)
	if got := p.Position(); got != 28 {
		t.Errorf("position after seek = %v, want 28", got)
	}
	clk.advance(time.Second)
	if got := p.Position(); got != 29 {
		t.Errorf("position = %v, want 29", got)
	}
}

func TestClockPlayer_StopsAtEnd(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	p := newClockPlayer(10, clk.now)
	p.Seek(-4)
	if got := p.Position(); got != 0 {
		t.Errorf("negative seek = %v, want 0", got)
	}

	p.Play()
	clk.advance(15 * time.Second)
	if got := p.Position(); got != 10 {
		t.Errorf("position = %v, want 10", got)
	}
	if p.Playing() {
		t.Error("expected playback to stop at the end")
	}

	d, ok := p.Duration()
	if !ok || d != 10 {
		t.Errorf("Duration() = %v, %v; want 10, true", d, ok)
	}
}

func TestParseProbeDuration(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{"fractional", `{"format":{"duration":"125.874000"}}`, 125, false},
		{"missing", `{"format":{}}`, 0, true},
		{"garbage", `{"format":{"duration":"n/a"}}`, 0, true},
		{"not json", `nope`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbeDuration(tt.out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
