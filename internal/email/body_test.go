package email

import "testing"

func TestStripHTML(t *testing.T) {
	in := `<html><head><style>p { color: red; }</style></head>
<body><p>Hello &amp; welcome</p><div>second&nbsp;line</div>
<script>alert("x")</script></body></html>`

	got := stripHTML(in)
	want := "Hello & welcome\n\nsecond line"
	if got != want {
		t.Errorf("stripHTML() = %q, want %q", got, want)
	}
}

func TestStripHTMLCollapsesBlankLines(t *testing.T) {
	in := "<p>a</p><br><br><br><p>b</p>"
	got := stripHTML(in)
	if got != "a\n\nb" {
		t.Errorf("stripHTML() = %q, want %q", got, "a\n\nb")
	}
}
