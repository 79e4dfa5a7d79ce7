package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// OTPData fills the one-time code email.
type OTPData struct {
	Heading string
	Intro   string
	Code    string
	TTL     string
}

// OTPEmail renders a minimal HTML message carrying a one-time code.
func OTPEmail(d OTPData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html><body style="font-family:sans-serif;color:#111">
<h2>%s</h2>
<p>%s</p>
<p style="font-size:28px;font-weight:bold;letter-spacing:6px">%s</p>
<p>The code expires in %s. If you did not request it, ignore this email.</p>
</body></html>`,
			templ.EscapeString(d.Heading),
			templ.EscapeString(d.Intro),
			templ.EscapeString(d.Code),
			templ.EscapeString(d.TTL),
		)
		return err
	})
}
