package extraction

import "fmt"

const extractionSystemPrompt = `You are an expert insurance document processor. Your task is to:
1. Analyze the insurance template to identify all fields that need to be filled
2. Extract corresponding values from the photo report text
3. Return a JSON object mapping field names to their values

Rules:
- Be precise and extract exact values from the report
- If a value cannot be found, use "N/A"
- Format dates consistently as MM/DD/YYYY
- Format currency with $ symbol
- Keep field names exactly as they appear in the template
- Return ONLY valid JSON, no additional text`

func buildExtractionPrompt(templateText, reportText string) string {
	return fmt.Sprintf(`INSURANCE TEMPLATE:
%s

PHOTO REPORT CONTENT:
%s

Based on the template above, extract all relevant information from the photo report.
Identify each field in the template that needs to be filled and find its corresponding value.

Return a JSON object where:
- Keys are the field names/labels from the template
- Values are the extracted data from the report

Return ONLY the JSON object, nothing else.`, templateText, reportText)
}
