package watch

import (
	"testing"
	"time"

	"github.com/lifetab/lifetab/internal/testutil"
)

const historyHTML = `<html><body>
<div class="outer-cell">
  <div class="content-cell header-cell"><b>YouTube</b></div>
  <div class="content-cell">Watched&nbsp;<a href="https://www.youtube.com/watch?v=abc">First Video</a><br><a href="https://www.youtube.com/channel/c1">Channel One</a><br>Feb 13, 2024, 8:35:03 AM UTC</div>
</div>
<div class="outer-cell">
  <div class="content-cell">Watched&nbsp;<a href="https://www.youtube.com/watch?v=def">Second Video</a><br><a href="https://www.youtube.com/channel/c1">Channel One</a><br>Feb 13, 2024, 9:00:00 AM UTC</div>
</div>
<div class="outer-cell">
  <div class="content-cell">Visited a page<br>Feb 13, 2024, 9:30:00 AM UTC</div>
</div>
<div class="outer-cell">
  <div class="content-cell">Watched&nbsp;<a href="https://www.youtube.com/watch?v=abc">First Video</a><br><a href="https://www.youtube.com/channel/c2">Channel Two</a><br>Feb 14, 2024, 7:15:00 PM UTC</div>
</div>
</body></html>`

func historyZip(t *testing.T) string {
	t.Helper()
	return testutil.CreateTempZip(t, map[string]string{
		"Takeout/YouTube and YouTube Music/history/watch-history.html": historyHTML,
	})
}

func TestReadHistory(t *testing.T) {
	tab, err := ReadHistory(historyZip(t), Options{User: "u1", Pseudonymize: false})
	if err != nil {
		t.Fatalf("ReadHistory() failed: %v", err)
	}
	// The cell with fewer than two links is skipped.
	if tab.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tab.Len())
	}

	r := tab.Row(0)
	if title, _ := r.String("video_title"); title != "First Video" {
		t.Errorf("video_title = %q, want First Video", title)
	}
	if ch, _ := r.String("channel_title"); ch != "Channel One" {
		t.Errorf("channel_title = %q, want Channel One", ch)
	}
	want := time.Date(2024, 2, 13, 8, 35, 3, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", r.Timestamp, want)
	}
}

func TestReadHistoryPseudonymizes(t *testing.T) {
	tab, err := ReadHistory(historyZip(t), Options{Pseudonymize: true})
	if err != nil {
		t.Fatalf("ReadHistory() failed: %v", err)
	}

	// Same video appearing twice keeps the same code; distinct channels get
	// distinct codes.
	v0, _ := tab.Row(0).Value("video_title")
	v2, _ := tab.Row(2).Value("video_title")
	if v0 != v2 {
		t.Errorf("repeat video codes differ: %v vs %v", v0, v2)
	}
	v1, _ := tab.Row(1).Value("video_title")
	if v0 == v1 {
		t.Errorf("distinct videos share code %v", v0)
	}
	c0, _ := tab.Row(0).Value("channel_title")
	c2, _ := tab.Row(2).Value("channel_title")
	if c0 == c2 {
		t.Errorf("distinct channels share code %v", c0)
	}
	for i, r := range tab.Rows() {
		if s, ok := r.String("video_title"); ok && s != "" {
			t.Errorf("row %d raw title survived: %q", i, s)
		}
	}
}

func TestMissingHistoryMember(t *testing.T) {
	path := testutil.CreateTempZip(t, map[string]string{"Takeout/other.txt": "x"})
	tab, err := ReadHistory(path, Options{})
	if err != nil {
		t.Fatalf("ReadHistory() failed: %v", err)
	}
	if tab.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tab.Len())
	}
}
