package otp

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

var textBody = texttemplate.Must(texttemplate.New("text").Parse(
	`Your one-time verification code is: {{.Code}}
This code expires in {{.Minutes}} minutes.
If you did not request this, ignore this email.`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`
<div style="font-family: sans-serif; background:#111; color:#E5E7EB; padding:24px; border-radius:16px; max-width:560px; margin:auto;">
  <h2 style="color:#FFFFFF;">Your Verification Code</h2>
  <p>Use this code to verify your email. It expires in <strong>{{.Minutes}} minutes</strong>.</p>
  <div style="font-size:24px; font-weight:bold; padding:12px; border-radius:12px; background:#0A0A0A; border:1px solid #1A1A1A; display:inline-block;">{{.Code}}</div>
  <p style="margin-top:20px; font-size:12px; color:#9DA3AF;">If you didn't request this, you can ignore this email.</p>
  <p style="font-size:12px; color:#6B7280;">Sent to {{.To}}. Do not share this code.</p>
</div>
`))

type bodyData struct {
	Code    string
	Minutes int
	To      string
}

func render(data bodyData) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := textBody.Execute(&tb, data); err != nil {
		return "", "", err
	}
	if err := htmlBody.Execute(&hb, data); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}
