package email

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"
)

// Template names one of the built-in email layouts.
type Template string

const (
	TemplateDowntime Template = "downtime"
	TemplateUptime   Template = "uptime"
	TemplateCredits  Template = "credits"
	TemplateInvite   Template = "invite"
	TemplateReminder Template = "reminder"
)

// KnownTemplate reports whether t names one of the built-in templates.
func KnownTemplate(t Template) bool {
	switch t {
	case TemplateDowntime, TemplateUptime, TemplateCredits, TemplateInvite, TemplateReminder:
		return true
	}
	return false
}

// DefaultSubject is used when the operator leaves the subject blank.
func DefaultSubject(t Template) string {
	switch t {
	case TemplateDowntime:
		return "Scheduled Downtime: Helium will be unavailable for 1 hour"
	case TemplateUptime:
		return "Helium is Back Online"
	case TemplateCredits:
		return "Credits Added to Your Account"
	case TemplateInvite:
		return "Your Helium Invite Code"
	case TemplateReminder:
		return "Your Helium Invite Code Expires Soon"
	}
	return "A Message from Helium"
}

// RenderParams carries everything a template can interpolate. TextContent
// is the operator's copy; when empty each template falls back to its stock
// wording. InviteCode and ExpiresAt only matter for the invite layouts.
type RenderParams struct {
	TextContent string
	InviteCode  string
	ExpiresAt   string
	WebURL      string
}

var downtimeParagraphs = []string{
	"We wanted to let you know that Helium will be temporarily unavailable for 1 hour as we perform scheduled maintenance and upgrades.",
	"During this window, you won't be able to access Helium. Once the maintenance is complete, you'll be able to log back in and experience the platform as usual.",
	"We appreciate your patience and understanding as we work to make Helium even better for you.",
}

var uptimeParagraphs = []string{
	"We're pleased to inform you that Helium is now back online and fully operational after scheduled maintenance.",
	"All systems are running smoothly, and you can now access all features and services as usual. We appreciate your patience during the brief maintenance window.",
	"If you experience any issues, please don't hesitate to reach out to our support team.",
}

var creditsParagraphs = []string{
	"We're excited to inform you that credits have been added to your Helium account. These credits are now available for you to use across all platform features.",
	"You can check your credit balance in your account dashboard at any time. If you have any questions about your credits or how to use them, please feel free to reach out to our support team.",
	"Thank you for being a valued member of the Helium community.",
}

func inviteDefaultParagraphs(expiresAt string) []string {
	out := []string{
		"We've opened up a spot for you on Helium and your personal invite code is ready to use.",
		"Enter the code below during signup to activate your account. Each code works once, so keep it to yourself.",
	}
	if when := friendlyDate(expiresAt); when != "" {
		out = append(out, "Your code expires on "+when+", so don't wait too long.")
	}
	return out
}

func reminderDefaultParagraphs(expiresAt string) []string {
	out := []string{"Just a quick reminder that your Helium invite code is still waiting for you."}
	if when := friendlyDate(expiresAt); when != "" {
		out = append(out, "It expires on "+when+". After that the code can't be redeemed, so grab your spot while it lasts.")
	} else {
		out = append(out, "Codes don't last forever, so grab your spot while it lasts.")
	}
	return out
}

func friendlyDate(value string) string {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return ""
	}
	return ts.Format("January 2, 2006")
}

var boldMarks = regexp.MustCompile(`\*\*(.+?)\*\*`)

// richText escapes operator text, then applies the two bits of markup the
// compose box supports: **bold** spans and single line breaks.
func richText(s string) template.HTML {
	h := template.HTMLEscapeString(s)
	h = boldMarks.ReplaceAllString(h, "<strong>$1</strong>")
	h = strings.ReplaceAll(h, "\n", "<br>")
	return template.HTML(h)
}

// greetingHTML renders the greeting with the product name emphasised the
// way the stock templates do.
func greetingHTML(s string) template.HTML {
	h := string(richText(s))
	h = strings.Replace(h, "Greetings from Helium,", `Greetings from <span style="font-weight:700">Helium</span>,`, 1)
	return template.HTML(h)
}

type ctaButton struct {
	Label string
	URL   string
}

type noticePage struct {
	BodyCID  string
	BodyAlt  string
	Greeting template.HTML
	Body     []template.HTML
	CodeBox  string
	Button   *ctaButton
	Signoff  template.HTML
}

type creditsPage struct {
	ButtonURL string
}

// Render produces the HTML document for a template. Inline images are
// referenced by cid: tokens; AttachmentsFor picks them up from the result.
func Render(t Template, p RenderParams) (string, error) {
	switch t {
	case TemplateDowntime:
		return renderNotice(p.TextContent, "downtime-body", "Downtime Notice", downtimeParagraphs)
	case TemplateUptime:
		return renderNotice(p.TextContent, "uptime-body", "System Back Online", uptimeParagraphs)
	case TemplateInvite:
		return renderInvite(p, false)
	case TemplateReminder:
		return renderInvite(p, true)
	case TemplateCredits:
		return execTemplate(creditsTmpl, creditsPage{ButtonURL: buttonURL(p)})
	}
	return "", fmt.Errorf("unknown email template %q", t)
}

func renderNotice(text, bodyCID, bodyAlt string, defaults []string) (string, error) {
	parsed := ParseText(text)
	paragraphs := parsed.Paragraphs
	if len(paragraphs) == 0 {
		paragraphs = defaults
	}

	page := noticePage{
		BodyCID:  bodyCID,
		BodyAlt:  bodyAlt,
		Greeting: greetingHTML(parsed.Greeting),
		Signoff:  richText(parsed.Signoff),
	}
	for _, para := range paragraphs {
		page.Body = append(page.Body, richText(para))
	}
	return execTemplate(noticeTmpl, page)
}

func renderInvite(p RenderParams, reminder bool) (string, error) {
	defaults := inviteDefaultParagraphs(p.ExpiresAt)
	label := "Join Helium"
	if reminder {
		defaults = reminderDefaultParagraphs(p.ExpiresAt)
		label = "Redeem Your Code"
	}

	parsed := ParseText(p.TextContent)
	paragraphs := parsed.Paragraphs
	if len(paragraphs) == 0 {
		paragraphs = defaults
	}

	page := noticePage{
		Greeting: greetingHTML(parsed.Greeting),
		Signoff:  richText(parsed.Signoff),
		CodeBox:  p.InviteCode,
		Button:   &ctaButton{Label: label, URL: buttonURL(p)},
	}
	for _, para := range paragraphs {
		page.Body = append(page.Body, richText(para))
	}
	return execTemplate(noticeTmpl, page)
}

func buttonURL(p RenderParams) string {
	if p.WebURL != "" {
		return p.WebURL
	}
	return "http://he2.ai"
}

func execTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// DefaultText builds the plain-text counterpart of a template's stock
// content. It round-trips through ParseText, so sending a template with no
// custom copy shows the same words in both MIME parts.
func DefaultText(t Template, p RenderParams) string {
	var paragraphs []string
	switch t {
	case TemplateDowntime:
		paragraphs = downtimeParagraphs
	case TemplateUptime:
		paragraphs = uptimeParagraphs
	case TemplateCredits:
		paragraphs = creditsParagraphs
	case TemplateInvite:
		paragraphs = inviteDefaultParagraphs(p.ExpiresAt)
	case TemplateReminder:
		paragraphs = reminderDefaultParagraphs(p.ExpiresAt)
	}
	if (t == TemplateInvite || t == TemplateReminder) && p.InviteCode != "" {
		paragraphs = append(paragraphs, "Your invite code: "+p.InviteCode)
	}

	parts := []string{DefaultSubject(t), DefaultGreeting}
	parts = append(parts, paragraphs...)
	parts = append(parts, DefaultSignoff)
	return strings.Join(parts, "\n\n")
}

var noticeTmpl = template.Must(template.New("notice").Parse(noticeHTML))

var creditsTmpl = template.Must(template.New("credits").Parse(creditsHTML))

const noticeHTML = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html>
<head>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
<style>
@media (max-width: 450px) {
  .layout-0 { display: none !important; }
}
</style>
</head>
<body style="width:100%;background-color:#f0f1f5;margin:0;padding:0">
<table width="100%" border="0" cellpadding="0" cellspacing="0" bgcolor="#f0f1f5">
<tr>
<td style="background-color:#f0f1f5">
<table align="center" width="100%" border="0" cellpadding="0" cellspacing="0" style="max-width:600px;margin:0 auto;background-color:#ffffff">
<tr>
<td style="padding:10px 0px 0px 0px">
<table align="center" width="100%" border="0" cellpadding="0" cellspacing="0">
<tr>
<td style="padding:10px 0 10px 0">
<table align="center" width="100%" border="0" cellpadding="0" cellspacing="0" style="color:#000;font-family:Arial, Helvetica, sans-serif">
<tr>
<td style="padding:0px 20px">
<table cellpadding="0" cellspacing="0" border="0" style="width:100%">
<tr>
<td align="center">
<table cellpadding="0" cellspacing="0" border="0" style="width:100%;max-width:56px">
<tr>
<td style="width:100%;padding:20 0">
<img src="cid:email-logo" width="56" height="57" style="display:block;width:100%;height:auto;max-width:100%" alt="Helium Logo">
</td>
</tr>
</table>
</td>
</tr>
</table>
</td>
</tr>
{{if .BodyCID}}<tr>
<td style="font-size:0;height:16px" height="16">&nbsp;</td>
</tr>
<tr>
<td style="padding:0px 20px">
<table cellpadding="0" cellspacing="0" border="0" style="width:100%">
<tr>
<td align="center">
<table cellpadding="0" cellspacing="0" border="0" style="width:100%;max-width:560px">
<tr>
<td style="width:100%;padding:0">
<img src="cid:{{.BodyCID}}" width="560" height="420" style="display:block;width:100%;height:auto;max-width:100%" alt="{{.BodyAlt}}">
</td>
</tr>
</table>
</td>
</tr>
</table>
</td>
</tr>
{{end}}<tr>
<td style="font-size:0;height:8px" height="8">&nbsp;</td>
</tr>
<tr>
<td dir="ltr" style="color:#333333;font-size:18.6667px;line-height:1.84;text-align:left;padding:0px 20px">
<span style="white-space:pre-wrap">{{.Greeting}}</span><br>
</td>
</tr>
{{range .Body}}<tr>
<td style="font-size:0;height:8px" height="8">&nbsp;</td>
</tr>
<tr>
<td dir="ltr" style="color:#333333;font-size:18.6667px;line-height:1.84;text-align:left;padding:0px 20px">
<span style="white-space:pre-wrap">{{.}}</span><br>
</td>
</tr>
{{end}}{{if .CodeBox}}<tr>
<td style="font-size:0;height:16px" height="16">&nbsp;</td>
</tr>
<tr>
<td align="center" style="padding:0px 20px">
<table cellpadding="0" cellspacing="0" border="0" align="center">
<tr>
<td style="background-color:#f0f1f5;border:1px dashed #94a3b8;border-radius:8px;padding:14px 40px;font-family:'Courier New', Courier, monospace;font-size:28px;font-weight:700;letter-spacing:0.2em;color:#111111;text-align:center">{{.CodeBox}}</td>
</tr>
</table>
</td>
</tr>
{{end}}{{if .Button}}<tr>
<td style="font-size:0;height:24px" height="24">&nbsp;</td>
</tr>
<tr>
<td align="center" style="padding:0">
<a href="{{.Button.URL}}" target="_blank" rel="noopener noreferrer" style="display:inline-block;background-color:#4ade80;color:#ffffff;font-family:Arial, Helvetica, sans-serif;font-size:16px;font-weight:600;text-decoration:none;text-align:center;padding:14px 32px;border-radius:8px;line-height:1.2;letter-spacing:0.01em">{{.Button.Label}}</a>
</td>
</tr>
{{end}}<tr>
<td style="font-size:0;height:8px" height="8">&nbsp;</td>
</tr>
<tr>
<td dir="ltr" style="color:#333333;font-size:18.6667px;line-height:1.84;text-align:left;padding:0px 20px">
<span style="white-space:pre-wrap">{{.Signoff}}</span><br>
</td>
</tr>
</table>
</td>
</tr>
</table>
</td>
</tr>
</table>
</td>
</tr>
</table>
</body>
</html>`

const creditsHTML = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html>
<head>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
<style>
@media (max-width: 450px) {
  .layout-0 { display: none !important; }
}
</style>
</head>
<body style="width:100%;background-color:#ffffff;margin:0;padding:0">
<table width="100%" border="0" cellpadding="0" cellspacing="0" bgcolor="#ffffff">
<tr>
<td style="background-color:#ffffff;padding:20px 0">
<table align="center" width="100%" border="0" cellpadding="0" cellspacing="0" style="max-width:600px;margin:0 auto;background-color:#ffffff">
<tr>
<td style="padding:0">
<table align="center" width="100%" border="0" cellpadding="0" cellspacing="0" style="color:#000;font-family:Arial, Helvetica, sans-serif">
<tr>
<td style="padding:0px 20px">
<table cellpadding="0" cellspacing="0" border="0" style="width:100%">
<tr>
<td align="center">
<table cellpadding="0" cellspacing="0" border="0" style="width:100%;max-width:56px">
<tr>
<td style="width:100%;padding:20 0">
<img src="cid:email-logo" width="56" height="57" style="display:block;width:100%;height:auto;max-width:100%" alt="Helium Logo">
</td>
</tr>
</table>
</td>
</tr>
</table>
</td>
</tr>
<tr>
<td style="font-size:0;height:24px" height="24">&nbsp;</td>
</tr>
<tr>
<td style="padding:0">
<table cellpadding="0" cellspacing="0" border="0" style="width:100%">
<tr>
<td align="center" style="padding:0">
<table cellpadding="0" cellspacing="0" border="0" style="width:100%;max-width:600px">
<tr>
<td style="width:100%;padding:0">
<img src="cid:credits-body" width="600" style="display:block;width:100%;height:auto;max-width:100%;border-radius:8px" alt="Credits Added">
</td>
</tr>
</table>
</td>
</tr>
</table>
</td>
</tr>
<tr>
<td style="font-size:0;height:24px" height="24">&nbsp;</td>
</tr>
<tr>
<td style="padding:0">
<table align="center" width="100%" border="0" cellpadding="0" cellspacing="0">
<tr>
<td align="center" style="padding:0">
<a href="{{.ButtonURL}}" target="_blank" rel="noopener noreferrer" style="display:inline-block;background-color:#4ade80;color:#ffffff;font-family:Arial, Helvetica, sans-serif;font-size:16px;font-weight:600;text-decoration:none;text-align:center;padding:14px 32px;border-radius:8px;line-height:1.2;letter-spacing:0.01em">Get Started</a>
</td>
</tr>
</table>
</td>
</tr>
</table>
</td>
</tr>
</table>
</td>
</tr>
</table>
</body>
</html>`
