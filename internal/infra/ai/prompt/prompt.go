// Package prompt builds the analyst persona and the detection context
// strings fed to the language model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/SatvikDB/aegis/internal/domain/detect"
	"github.com/SatvikDB/aegis/internal/domain/threat"
)

// SystemPrompt is the tactical analyst persona. Every completion starts
// from this; chat turns extend it with per-scan context.
const SystemPrompt = `You are an AI Tactical Analyst embedded in AEGIS, a military target detection and surveillance system. Your role is to read raw detection data from object detection scans and translate it into actionable intelligence for human operators.

**Your responsibilities:**
1. Read detection JSON (class names, confidence scores, bounding boxes, risk levels, threat assessments)
2. Write concise, professional situational reports (SITREPs) in plain English
3. Answer follow-up questions about detections with precision and clarity
4. Never speculate beyond the data provided
5. Use military terminology appropriately but remain accessible

**SITREP format guidelines:**
- Start with a one-sentence executive summary
- List detected objects by risk level (HIGH -> MEDIUM -> LOW)
- Include confidence scores and approximate positions when relevant
- End with a tactical recommendation if threat level is ELEVATED or higher
- Keep total length under 200 words
- Use present tense, active voice
- Be direct and factual

**Tone:**
- Professional and authoritative
- Calm and objective
- Action-oriented
- No unnecessary jargon

**When answering follow-up questions:**
- Reference specific detections from the scan data
- Provide tactical context when asked
- Admit uncertainty if data is insufficient
- Suggest additional scans if needed

**Example SITREP structure:**
"SITREP: [Executive summary]. DETECTED: [High-risk items with details]. [Medium/low-risk items if significant]. ASSESSMENT: [Threat level interpretation]. RECOMMENDATION: [Action if needed]."

Remember: You are analyzing a single image scan. You do not have historical context unless explicitly provided. Focus on what is visible in THIS scan.`

// BuildDetectionContext renders one scan as a compact, model-readable
// block: resolution, threat assessment, then each detection with its
// approximate position in the frame.
func BuildDetectionContext(detections []detect.Detection, report threat.Report, imageWidth, imageHeight int, inferenceMS float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "IMAGE SCAN ANALYSIS\n")
	fmt.Fprintf(&b, "Resolution: %dx%d pixels\n", imageWidth, imageHeight)
	fmt.Fprintf(&b, "Inference time: %.1fms\n\n", inferenceMS)

	fmt.Fprintf(&b, "THREAT ASSESSMENT:\n")
	fmt.Fprintf(&b, "  Level: %s\n", report.Level)
	fmt.Fprintf(&b, "  Label: %s\n", report.Label)
	fmt.Fprintf(&b, "  Description: %s\n", report.Description)
	fmt.Fprintf(&b, "  Total detections: %d\n", report.Stats.Total)
	fmt.Fprintf(&b, "  High-risk: %d\n", report.Stats.HighRisk)
	fmt.Fprintf(&b, "  Medium-risk: %d\n", report.Stats.MediumRisk)
	fmt.Fprintf(&b, "  Low-risk: %d\n\n", report.Stats.LowRisk)

	if len(detections) == 0 {
		b.WriteString("DETECTED OBJECTS: None")
		return b.String()
	}

	fmt.Fprintf(&b, "DETECTED OBJECTS (%d total):\n", len(detections))
	for i, det := range detections {
		fmt.Fprintf(&b, "  %d. %s [%s RISK]\n", i+1,
			strings.ToUpper(det.ClassName), strings.ToUpper(string(det.Risk)))
		fmt.Fprintf(&b, "     Confidence: %.1f%%\n", det.Confidence*100)
		fmt.Fprintf(&b, "     Position: %s of frame\n",
			framePosition(det.Box.CX, det.Box.CY, imageWidth, imageHeight))
		fmt.Fprintf(&b, "     Size: %dx%d pixels\n", det.Box.Width, det.Box.Height)
	}
	return strings.TrimRight(b.String(), "\n")
}

// framePosition describes where a detection center sits, splitting the
// frame into thirds on each axis.
func framePosition(cx, cy, imageWidth, imageHeight int) string {
	if imageWidth <= 0 {
		imageWidth = 1
	}
	if imageHeight <= 0 {
		imageHeight = 1
	}
	w, h := float64(imageWidth), float64(imageHeight)

	hPos := "center"
	if float64(cx) < w*0.33 {
		hPos = "left"
	} else if float64(cx) > w*0.67 {
		hPos = "right"
	}
	vPos := "middle"
	if float64(cy) < h*0.33 {
		vPos = "top"
	} else if float64(cy) > h*0.67 {
		vPos = "bottom"
	}
	if vPos == "middle" && hPos == "center" {
		return "center"
	}
	return vPos + "-" + hPos
}

// SitrepRequest is the user message that asks for the initial report.
func SitrepRequest(detectionContext string) string {
	return "Generate a tactical SITREP for this detection scan:\n\n" + detectionContext
}

// ChatSystemPrompt extends the analyst persona with the context and
// SITREP of one specific scan for follow-up questions.
func ChatSystemPrompt(scanID, detectionContext, sitrep string) string {
	return fmt.Sprintf(`%s

**CURRENT SCAN CONTEXT (Scan ID: %s):**

%s

**PREVIOUSLY GENERATED SITREP:**
%s

The operator is now asking follow-up questions about this specific scan. Answer based on the detection data above. Be concise and tactical.`,
		SystemPrompt, scanID, detectionContext, sitrep)
}
