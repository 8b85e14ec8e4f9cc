package email

type notificationTemplate struct {
	subject string
	body    string
}

// Keys match the notification intent kinds emitted by the workflow engine.
var notificationTemplates = map[string]notificationTemplate{
	"PitchApproved": {
		subject: `Your Pitch "{{.title}}" Has Been Approved`,
		body: emailHeader + `
    <h2>Congratulations, {{.contributor}}!</h2>

    <p>Your pitch <strong>{{.title}}</strong> has been approved by {{.staff}}.</p>

    <p>{{.description}}</p>

    {{if eq .hasWriter "true"}}
    <p>You are set as the writer. Your primary editor is {{.primaryEditor}}; they will reach out about next steps and deadlines.</p>
    {{else}}
    <p>The story is now open for claims from contributors on the assigned teams.</p>
    {{end}}
` + emailFooter,
	},
	"PitchDeclined": {
		subject: `Your Pitch "{{.title}}" Has Been Declined`,
		body: emailHeader + `
    <h2>Hi {{.contributor}},</h2>

    <p>Thank you for submitting your pitch <strong>{{.title}}</strong>. Unfortunately it was declined by {{.staff}}.</p>

    {{if .reasoning}}
    <div class="note">{{.reasoning}}</div>
    {{end}}

    <p>Don't be discouraged. We encourage you to keep pitching stories that matter to your community.</p>
` + emailFooter,
	},
	"ClaimApproved": {
		subject: `Your Claim Request For "{{.title}}" Has Been Approved`,
		body: emailHeader + `
    <h2>Congratulations, {{.contributor}}!</h2>

    <p>Your request to join <strong>{{.title}}</strong> has been approved by {{.staff}}.</p>

    <p>Your primary editor for this story is {{.primaryEditor}}. They are copied on this email and will follow up with assignment details.</p>
` + emailFooter,
	},
	"ClaimDeclined": {
		subject: `Your Claim Request For "{{.title}}" Has Been Declined`,
		body: emailHeader + `
    <h2>Hi {{.contributor}},</h2>

    <p>Your request to join <strong>{{.title}}</strong> was declined by {{.staff}}.</p>

    <p>Positions on a story are limited; this is not a reflection of your work. Please keep an eye on the pitch doc for other stories that need your team.</p>
` + emailFooter,
	},
	"ContributorAdded": {
		subject: `You Have Been Added To "{{.title}}"`,
		body: emailHeader + `
    <h2>Hi {{.contributor}},</h2>

    <p>{{.staff}} has added you to the story <strong>{{.title}}</strong>.</p>

    <p>Your primary editor is {{.primaryEditor}}. They are copied on this email and will reach out with details.</p>
` + emailFooter,
	},
	"UserApproved": {
		subject: `Welcome to the South Side Weekly!`,
		body: emailHeader + `
    <h2>Welcome aboard, {{.contributor}}!</h2>

    <p>Your contributor account has been approved. You can now browse the pitch doc, submit pitches, and claim open positions on approved stories.</p>
` + emailFooter,
	},
	"UserRejected": {
		subject: `Your South Side Weekly Application`,
		body: emailHeader + `
    <h2>Hi {{.contributor}},</h2>

    <p>Thank you for your interest in contributing. We are unable to onboard you at this time.</p>

    {{if .reasoning}}
    <div class="note">{{.reasoning}}</div>
    {{end}}
` + emailFooter,
	},
}

const emailHeader = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #b01c2e; padding-bottom: 10px; margin-bottom: 20px; }
        .note { background: #fff3cd; padding: 12px; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>South Side Weekly</h1>
    </div>
`

const emailFooter = `
    <div class="footer">
        <p>This is an automated message from the South Side Weekly production tracker.</p>
    </div>
</body>
</html>`
