package profile

import (
	"fmt"
	"strings"

	"SolarpunkList/internal/ports"
)

const contextCharsPerResult = 1500

// BuildResearchContext concatenates search results into the text block fed
// to the model. Each document's body is truncated to bound token usage.
func BuildResearchContext(results []ports.SearchResult, truncate bool) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		text := r.Text
		if truncate && len(text) > contextCharsPerResult {
			text = text[:contextCharsPerResult]
		}
		parts = append(parts, fmt.Sprintf("Title: %s\nURL: %s\nContent: %s", r.Title, r.URL, text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func extractionPrompt(researchContext string, existingNames []string) string {
	exclusions := make([]string, 0, len(existingNames))
	for _, n := range existingNames {
		exclusions = append(exclusions, "- "+n)
	}

	return fmt.Sprintf(`You are a researcher finding intentional communities, ecovillages, and regenerative land projects. Analyze the following web search results and extract the names of SPECIFIC, REAL communities or projects mentioned.

IMPORTANT: These communities ALREADY EXIST in our database, so DO NOT include them:
%s

SEARCH RESULTS:
%s

Return a JSON array of NEW communities NOT in the list above. Each entry should have:
- "name": the official/common name of the community
- "sources": array of URLs where this community was mentioned

Rules:
- Only include real, specific communities with a physical location
- Do NOT include organizations, networks, or umbrella groups (e.g., "Global Ecovillage Network" is not a community)
- Do NOT include any community already in the existing list above
- Do NOT fabricate communities - they must be explicitly mentioned in the search results
- Include at most 5 communities to keep quality high

Return ONLY a valid JSON array like: [{"name": "Community Name", "sources": ["url1"]}]
If no new communities are found, return: []`,
		strings.Join(exclusions, "\n"), researchContext)
}

func synthesisPrompt(name, researchContext string) string {
	return fmt.Sprintf(`You are a researcher specializing in intentional communities, ecovillages, and regenerative land projects. Based on the following research about "%s", generate a comprehensive community profile.

RESEARCH CONTEXT:
%s

Generate a JSON object with these fields:
{
  "name": "Official community name",
  "tagline": "One compelling sentence describing the community",
  "overview": "2-3 paragraphs, editorial tone describing the community",
  "stage": "forming|established|mature",
  "founded_year": number or null,
  "population": number or null,
  "location_country": "Country name",
  "location_region": "State/Province/Region",
  "location_lat": number or null,
  "location_lng": number or null,
  "website_url": "primary website URL or null",
  "scores": {
    "energy": { "score": 0-10, "reasoning": "brief explanation" },
    "land": { "score": 0-10, "reasoning": "brief explanation" },
    "tech": { "score": 0-10, "reasoning": "brief explanation" },
    "governance": { "score": 0-10, "reasoning": "brief explanation" },
    "community": { "score": 0-10, "reasoning": "brief explanation" },
    "circularity": { "score": 0-10, "reasoning": "brief explanation" }
  },
  "tech_stack": {
    "energy": ["list of energy technologies"],
    "water": ["list of water technologies"],
    "food": ["list of food technologies"],
    "shelter": ["list of shelter technologies"],
    "digital": ["list of digital technologies"],
    "governance": ["list of governance tools"]
  },
  "land_description": "Description of the land and terrain",
  "community_life": "Description of daily life and culture",
  "how_to_join": "How to visit or join the community",
  "tags": ["tag1", "tag2", ...],
  "ai_confidence": 0.0-1.0,
  "is_forming_disclaimer": true/false
}

IMPORTANT:
- Cite evidence for every score
- Default to lower scores when information is sparse
- Never fabricate details
- Flag when information is uncertain
- Set ai_confidence based on how much verifiable information you found
- Return ONLY valid JSON, no markdown wrapping`, name, researchContext)
}

func diffPrompt(existingOverview, freshContext string) string {
	if existingOverview == "" {
		existingOverview = "No existing overview."
	}

	return fmt.Sprintf(`You are a researcher tracking intentional communities and ecovillages. Given the existing profile and new research, determine what has changed and provide an updated profile.

EXISTING OVERVIEW:
%s

NEW RESEARCH:
%s

Return a JSON object with ONLY the fields that should be updated:
{
  "overview": "updated overview if changed, or null",
  "stage": "forming|established|mature|dormant or null if unchanged",
  "population": number or null if unchanged,
  "community_life": "updated text or null",
  "how_to_join": "updated text or null",
  "new_tags": ["any new tags to add"] or [],
  "status_change": "description of what changed" or null,
  "is_dormant": true/false,
  "confidence_adjustment": 0.0-1.0
}

If nothing meaningful has changed, return {"status_change": null, "confidence_adjustment": null}.
Return ONLY valid JSON.`, existingOverview, freshContext)
}

func classifyPrompt(pageContext string) string {
	return fmt.Sprintf(`Analyze this web page and determine if it represents an intentional community, ecovillage, regenerative land project, or similar solarpunk community.

PAGE CONTENT:
%s

If this IS a community/project, return a JSON object: {"name": "Community Name", "is_community": true}
If this is NOT a community/project, return: {"name": "", "is_community": false, "reason": "brief reason"}

Return ONLY valid JSON.`, pageContext)
}
