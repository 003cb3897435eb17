package email

import "fmt"

func appointmentConfirmationBody(userName, doctorName, date, time string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2>Appointment Confirmed</h2>
			<p>Dear %s,</p>
			<p>Your appointment has been scheduled successfully.</p>
			<table style="border-collapse: collapse;">
				<tr><td style="padding: 4px 12px 4px 0;"><strong>Doctor</strong></td><td>%s</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;"><strong>Date</strong></td><td>%s</td></tr>
				<tr><td style="padding: 4px 12px 4px 0;"><strong>Time</strong></td><td>%s</td></tr>
			</table>
			<p>Please arrive 10 minutes early. If you need to cancel, you can do so from your account.</p>
			<p>— The Healthbook Team</p>
		</div>`,
		userName, doctorName, date, time)
}

func passwordResetBody(token string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2>Password Reset</h2>
			<p>We received a request to reset your password. Use the token below within one hour:</p>
			<p style="font-size: 18px; font-weight: bold; letter-spacing: 1px;">%s</p>
			<p>If you did not request this, you can safely ignore this email.</p>
			<p>— The Healthbook Team</p>
		</div>`,
		token)
}
