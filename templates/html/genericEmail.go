package html

import "fmt"

// GenericEmailTemplate renders the standard notification email shell with a
// headline and body supplied by the caller.
func GenericEmailTemplate(headline, body string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
  <body style="margin:0;padding:0;background-color:#f4f4f4;font-family:Arial,Helvetica,sans-serif;">
    <table role="presentation" width="100%%" cellpadding="0" cellspacing="0">
      <tr>
        <td align="center" style="padding:24px 0;">
          <table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
            <tr>
              <td style="background-color:#1d4ed8;padding:20px 32px;">
                <h1 style="color:#ffffff;font-size:22px;margin:0;">CivicPulse</h1>
              </td>
            </tr>
            <tr>
              <td style="padding:32px;">
                <h2 style="color:#111827;font-size:18px;margin:0 0 16px 0;">%s</h2>
                <p style="color:#374151;font-size:14px;line-height:1.6;margin:0;">%s</p>
              </td>
            </tr>
            <tr>
              <td style="padding:0 32px 32px 32px;">
                <p style="color:#9ca3af;font-size:12px;margin:0;">
                  You are receiving this email because you reported an issue through CivicPulse.
                  This mailbox is not monitored.
                </p>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>`, headline, body)
}
