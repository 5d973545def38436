package handler

// TemplateRequestBody represents the request body for an email template
type TemplateRequestBody struct {
	Name     string `json:"name" binding:"required,max=100"`
	Category string `json:"category" binding:"required,oneof=general onboarding deposit withdrawal marketing compliance"`
	Subject  string `json:"subject" binding:"required,max=200"`
	Body     string `json:"body" binding:"required,max=65536"`
	Enabled  bool   `json:"enabled"`
}

// PreviewTemplateRequest picks the contact whose fields fill the template.
// Variables override or extend the contact values.
type PreviewTemplateRequest struct {
	EntityID  string            `json:"entity_id" binding:"omitempty,uuid"`
	Variables map[string]string `json:"variables"`
}
