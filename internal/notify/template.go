package notify

import (
	"fmt"
	"math"
	"strings"

	"SolarpunkList/internal/domain"
)

func location(c domain.Community) string {
	parts := make([]string, 0, 2)
	if c.LocationRegion != "" {
		parts = append(parts, c.LocationRegion)
	}
	if c.LocationCountry != "" {
		parts = append(parts, c.LocationCountry)
	}
	return strings.Join(parts, ", ")
}

func stageLabel(stage domain.Stage) string {
	s := string(stage)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func announcementHTML(c domain.Community, baseURL string) string {
	score := int(math.Round(c.SolarpunkScore))
	loc := location(c)
	stage := stageLabel(c.Stage)
	profileURL := fmt.Sprintf("%s/community/%s", baseURL, c.Slug)

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f4f7f4;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;">
  <div style="max-width:560px;margin:0 auto;padding:32px 16px;">
    <div style="background:#ffffff;border-radius:12px;overflow:hidden;border:1px solid #e2e8e0;">
      <div style="background:linear-gradient(135deg,#065f46,#047857);padding:28px 24px;text-align:center;">
        <h1 style="margin:0;color:#ffffff;font-size:20px;font-weight:700;letter-spacing:-0.3px;">SolarpunkList</h1>
        <p style="margin:8px 0 0;color:#a7f3d0;font-size:13px;">New Community Discovered</p>
      </div>
      <div style="padding:28px 24px;">
`)
	fmt.Fprintf(&b, "        <h2 style=\"margin:0 0 6px;color:#1a1a1a;font-size:22px;font-weight:700;\">%s</h2>\n", c.Name)
	if c.Tagline != "" {
		fmt.Fprintf(&b, "        <p style=\"margin:0 0 16px;color:#555;font-size:14px;line-height:1.5;\">%s</p>\n", c.Tagline)
	}
	b.WriteString("        <table style=\"width:100%;border-collapse:collapse;margin-bottom:20px;\">\n")
	if loc != "" {
		fmt.Fprintf(&b, "          <tr><td style=\"padding:6px 0;color:#888;font-size:13px;width:100px;\">Location</td><td style=\"padding:6px 0;color:#333;font-size:13px;font-weight:500;\">%s</td></tr>\n", loc)
	}
	if stage != "" {
		fmt.Fprintf(&b, "          <tr><td style=\"padding:6px 0;color:#888;font-size:13px;width:100px;\">Stage</td><td style=\"padding:6px 0;color:#333;font-size:13px;font-weight:500;\">%s</td></tr>\n", stage)
	}
	fmt.Fprintf(&b, "          <tr><td style=\"padding:6px 0;color:#888;font-size:13px;width:100px;\">Solarpunk Score</td><td style=\"padding:6px 0;font-size:13px;font-weight:700;color:#047857;\">%d / 100</td></tr>\n", score)
	b.WriteString("        </table>\n")
	fmt.Fprintf(&b, `        <div style="text-align:center;margin:24px 0 8px;">
          <a href="%s" style="display:inline-block;background:#047857;color:#ffffff;text-decoration:none;padding:12px 28px;border-radius:8px;font-size:14px;font-weight:600;">View Full Profile</a>
        </div>
      </div>
      <div style="padding:16px 24px;background:#f9fafb;border-top:1px solid #e2e8e0;text-align:center;">
        <p style="margin:0;color:#999;font-size:11px;">You're receiving this because you subscribed to SolarpunkList updates.</p>
      </div>
    </div>
  </div>
</body>
</html>`, profileURL)
	return b.String()
}

func announcementText(c domain.Community, baseURL string) string {
	score := int(math.Round(c.SolarpunkScore))
	loc := location(c)
	profileURL := fmt.Sprintf("%s/community/%s", baseURL, c.Slug)

	var b strings.Builder
	fmt.Fprintf(&b, "New community on SolarpunkList: %s\n\n", c.Name)
	if c.Tagline != "" {
		fmt.Fprintf(&b, "%s\n\n", c.Tagline)
	}
	if loc != "" {
		fmt.Fprintf(&b, "Location: %s\n", loc)
	}
	fmt.Fprintf(&b, "Solarpunk Score: %d/100\n\n", score)
	fmt.Fprintf(&b, "View the full profile: %s\n", profileURL)
	return b.String()
}
