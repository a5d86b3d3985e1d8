package extractor

// extractPrompt asks for exactly one verifiable claim, or the NO_CLAIM
// sentinel. Placeholders: speaker context, utterance text.
const extractPrompt = `You are analyzing a debate transcript segment%s. Your task is to extract exactly ONE verifiable factual claim from the following text.

Text to analyze:
"%s"

Instructions:
1. Concatenate this conversation into a single provable or disprovable claim.
2. Extract it as a clear, standalone statement
3. If the text contains no factual claims (e.g., it's just an opinion, question, or greeting), return "NO_CLAIM"
4. Return ONLY the claim text, nothing else

Examples of good claim extraction:
- Input: "I think Cuomo wants to abolish all policing in New York"
  Output: "Cuomo wants to abolish all policing in New York"

- Input: "Studies show that 90%% of Americans support universal healthcare"
  Output: "90%% of Americans support universal healthcare"

- Input: "How are you doing today?"
  Output: NO_CLAIM

- Input: "I believe that's a terrible idea"
  Output: NO_CLAIM

Now extract the claim:`

// analyzePrompt is the structured JSON mode with optional fallacy detection.
// Placeholders: speaker context, utterance text, fallacy instruction block.
const analyzePrompt = `You are analyzing a debate transcript segment%s. Extract factual claims and analyze them.

Text to analyze:
"%s"

Instructions:
1. Identify the MOST IMPORTANT factual claim that can be fact-checked
2. Extract it as a clear, standalone statement
3. Determine if it needs fact-checking (true for factual claims, false for opinions/questions)
%s
Respond in JSON format:
{
    "claim": "the extracted claim text or null if none",
    "needsFactCheck": true/false,
    "fallacy": "none" or fallacy type,
    "reasoning": "why this claim needs checking"
}

Examples:
{"claim": "Cuomo wants to abolish all policing", "needsFactCheck": true, "fallacy": "strawman"}
{"claim": null, "needsFactCheck": false, "fallacy": "none"}`

// fallacyInstructionBlock is spliced into analyzePrompt when fallacy
// detection is requested.
const fallacyInstructionBlock = `4. Detect if the claim contains any logical fallacy (strawman, ad_hominem, false_dichotomy, slippery_slope, appeal_to_authority, etc.)
5. If a fallacy is present, identify it; otherwise return "none"
`
