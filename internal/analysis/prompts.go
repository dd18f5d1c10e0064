package analysis

import "fmt"

// brandIdentificationPrompt asks the vision model which brand the page
// presents itself as.
const brandIdentificationPrompt = `You are a phishing detection assistant.
Look at the screenshot and identify the brand or organization the page
presents itself as. Reply with only the brand name in lowercase, or
"unknown" if no brand is recognizable.`

// domainMatchingPrompt asks whether the identified brand legitimately owns
// the domain. The reply must follow the three-line contract parsed by
// ParseModelReply.
func domainMatchingPrompt(brand, host, url, signals string) string {
	return fmt.Sprintf(`You are a phishing detection assistant.
Decide whether the domain below legitimately belongs to the identified brand.

Identified brand: %s
Domain: %s
URL: %s
%s
Answer in exactly this format:
1. BrandMatch: <True/False>
2. Explanation: <one or two sentences>
3. Confidence: <0.0-1.0>`, brand, host, url, signals)
}
