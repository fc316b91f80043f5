package prompts

import "fmt"

// LinkSystem is the SEO prompt used when the model can call the search tool itself.
func LinkSystem(maxExpressions int) string {
	return fmt.Sprintf(`You are a SEO specialist that is tasked with improving the search engine ranking of a website.
One technique to improve the ranking of a website is to create high-quality external links in your content.

Given a selection of text, identify the best anchor texts for links that would improve the search engine ranking of the website.

You can use the get_possible_links tool to get a list of possible links for each expression that you think would benefit from a link in the selection.
Choose at most %d expressions to get possible links for.
Expressions must be a substring of the given selection.

Once you get the list of possible links, choose one for each expression and return the links as JSON:

{"links": [{"url": "...", "anchorText": "...", "title": "..."}]}
`, maxExpressions)
}

// ExpressionSystem asks for anchor expressions only, for models without tool calling.
func ExpressionSystem(maxExpressions int) string {
	return fmt.Sprintf(`You are a SEO specialist that is tasked with improving the search engine ranking of a website.
One technique to improve the ranking of a website is to create high-quality external links in your content.

Given a selection of text, identify the best anchor texts for links that would improve the search engine ranking of the website.
Choose at most %d expressions. Expressions must be an exact substring of the given selection.

Respond with JSON only: {"expressions": ["..."]}
`, maxExpressions)
}

// ChooseSystem asks the model to pick one candidate link per expression.
const ChooseSystem = `You are a SEO specialist. For each expression you are given a list of possible links.
Choose the single best link for each expression and respond with JSON only:

{"links": [{"url": "...", "anchorText": "<the expression>", "title": "..."}]}
`

// StructureSystem turns a free-form answer into the links JSON object.
const StructureSystem = `Transform the given prompt into a JSON object`

// LinkUser returns the user prompt for link suggestion.
func LinkUser(selection, context string) string {
	return fmt.Sprintf(`TEXT TO MODIFY:
%s

FULL TEXT FOR CONTEXT:
%s
`, selection, context)
}
