package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	TemplateAnalyzeDescription = `Detect fillable fields in a DOCX insurance template.

**When to use:** Before filling a template, to see which labels, blanks and table cells the analyzer recognizes as fields.

**Why it's useful:** Shows exactly what the fill step will target, so mismatches between template labels and extracted fact keys surface early.

**Examples:**
• Inspect a new template: "Analyze glr-template.docx and list its fields"
• Debug a poor fill: "Check why 'Mortgage Company' was not detected in claim-form.docx"
• Template authoring: "Verify the blank cells in the loss summary table are picked up"

**Common workflows:**
1. Template Onboarding: Analyze → Review detected fields → Adjust template labels if needed
2. Fill Debugging: Analyze → Compare field labels against extracted keys → Fix naming
3. Batch Preparation: Analyze once → Confirm coverage → Fill many reports

**Best practices:** Field detection is purely structural (labels, blanks, tables); informational paragraphs are never treated as fields.`

	ReportExtractTextDescription = `Extract plain text from photo-report PDFs with page markers.

**When to use:** Need the raw text of one or more loss reports, either for review or as input to field extraction.

**Why it's useful:** Handles multi-page reports with per-page markers and flags scanned documents that yield no usable text before they reach the language model.

**Examples:**
• Review a report: "Extract text from photo-report-claim-1029.pdf"
• Pre-flight check: "Confirm the adjuster's report has extractable text before running extraction"
• Multi-report claims: "Combine the text of all three inspection reports"

**Common workflows:**
1. Extraction Pipeline: Extract text → Check content_type → Run fields_extract
2. Manual Review: Extract text → Read relevant pages → Note key facts
3. Scan Detection: Extract text → content_type says scanned_images → Request a text copy

**Best practices:** Check the content type in the response; scanned reports need OCR before they are useful here.`

	FieldsExtractDescription = `Extract field values from photo reports using the configured language model.

**When to use:** Have a template and one or more report PDFs and want the key/value facts the fill step consumes.

**Why it's useful:** Produces the JSON fact mapping in one call, using the template's own field labels as keys so downstream matching is mostly exact.

**Examples:**
• Standard claim: "Extract values for glr-template.docx from photo-report.pdf"
• Multi-document claim: "Pull facts from the roof and interior inspection reports together"
• Dry run: "Get the extracted values as JSON to review before filling"

**Common workflows:**
1. Two-step Fill: fields_extract → review/correct values → template_fill with values
2. One-shot Fill: skip this tool and pass report paths straight to template_fill
3. Audit: Extract values → Compare against the report text → Flag hallucinated facts

**Best practices:** Requires a configured Groq API key. Treat the mapping as advisory; the matcher tolerates missing, extra and oddly named keys.`

	TemplateFillDescription = `Fill a DOCX template from photo reports or a prepared value mapping.

**When to use:** Producing the populated claim document. Accepts either report PDFs (runs LLM extraction first) or a pre-extracted JSON values object.

**Why it's useful:** Runs the whole pipeline — analyze, match, populate — and writes a new DOCX that preserves every style, image and table of the original. Unmatched fields stay untouched for manual completion.

**Examples:**
• One-shot: "Fill glr-template.docx from photo-report.pdf"
• Reviewed values: "Fill the template with this corrected values JSON"
• Strict mode: "Fill with one_to_one so duplicate labels don't share a value"

**Common workflows:**
1. One-shot Fill: template_fill with report paths → review the returned report → open the output DOCX
2. Reviewed Fill: fields_extract → correct values → template_fill with values
3. Batch: repeat template_fill per claim with the same template

**Best practices:** Read the returned fill report; "3 of 7 fields filled" with unmatched labels listed is normal for sparse reports, not an error.`

	TemplateValidateDescription = `Verify a DOCX template is parseable and count its candidate fields.

**When to use:** Before relying on a template in automated workflows, or when a fill request fails with a parse error.

**Why it's useful:** Distinguishes structural problems (not a DOCX, corrupt zip, malformed XML) from templates that parse fine but simply contain no recognizable fields.

**Examples:**
• Upload check: "Validate the template the adjuster just uploaded"
• Pipeline safety: "Validate all templates in the claims directory before batch filling"
• Debugging: "Check whether fill failed because the template is corrupt"

**Common workflows:**
1. Automated Processing: Validate → Fill if valid → Surface parse errors otherwise
2. Template Authoring: Edit → Validate → Analyze → Iterate
3. Intake QA: Validate uploads → Reject corrupt files → Store good templates

**Best practices:** Zero detected fields is a warning, not a failure — the fill would return the document unchanged.`

	FillerServerInfoDescription = `Get server status, configuration, available tools, and usage guidance.

**When to use:** Starting a session with the template filler, troubleshooting, or discovering capabilities.

**Why it's useful:** Shows the working directory, size limits, extraction model configuration, and the full tool list in one call.

**Examples:**
• Session start: "Check the server is configured before processing claims"
• Troubleshooting: "See which directory the server is confined to"
• Capability discovery: "List the available tools and when to use each"

**Common workflows:**
1. Session Startup: Check server info → Verify extraction is configured → Plan workflow
2. Debugging: Review working directory → Check file size limits → Verify tool availability
3. Onboarding: Read tool descriptions → Choose the right entry point

**Best practices:** Run at the start of sessions; extraction tools are only available when a Groq API key is configured.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"template_analyze":    TemplateAnalyzeDescription,
	"report_extract_text": ReportExtractTextDescription,
	"fields_extract":      FieldsExtractDescription,
	"template_fill":       TemplateFillDescription,
	"template_validate":   TemplateValidateDescription,
	"filler_server_info":  FillerServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
