// Package prompt builds the natural-language prompts sent to the AI image
// and text gateway. Everything in here is pure string assembly: no I/O, no
// state. The same input always produces the same prompt, although the
// upstream generative model may still render different images for it.
package prompt

import (
	"fmt"
	"strings"

	"cakevision-backend/internal/models"
)

const (
	ViewFront = "front"
	ViewSide  = "side"
	ViewTop   = "top"
	ViewMain  = "main"
)

const (
	StyleDecorated = "decorated"
	StyleSculpted  = "sculpted"
)

var occasionGreetings = map[string]string{
	"birthday":    "Happy Birthday",
	"christmas":   "Merry Christmas",
	"anniversary": "Happy Anniversary",
	"graduation":  "Congratulations",
	"valentines":  "Happy Valentine's Day",
	"newyear":     "Happy New Year",
	"mothersday":  "Happy Mother's Day",
	"fathersday":  "Happy Father's Day",
}

// relationInverse maps the recipient's relation to the sender's perspective,
// e.g. a cake for a "daughter" is written as the parent.
var relationInverse = map[string]string{
	"daughter":    "parent",
	"son":         "parent",
	"mother":      "child",
	"father":      "child",
	"sister":      "sibling",
	"brother":     "sibling",
	"wife":        "spouse",
	"husband":     "spouse",
	"grandmother": "grandchild",
	"grandfather": "grandchild",
	"friend":      "friend",
	"colleague":   "colleague",
}

var viewLabels = map[string]string{
	ViewFront: "Front View",
	ViewSide:  "Side View",
	ViewTop:   "Top-Down View",
	ViewMain:  "Sculpted View",
}

// Greeting returns the celebration phrase for an occasion, falling back to
// "Celebrate" for occasions outside the lookup table.
func Greeting(occasion string) string {
	if g, ok := occasionGreetings[strings.ToLower(strings.TrimSpace(occasion))]; ok {
		return g
	}
	return "Celebrate"
}

// SenderPerspective returns the inverse relation used when writing the
// greeting message ("daughter" -> "parent").
func SenderPerspective(relation string) string {
	if p, ok := relationInverse[strings.ToLower(strings.TrimSpace(relation))]; ok {
		return p
	}
	return "someone close"
}

// ViewsFor returns the canonical ordered view set for a request. Decorated
// cakes render three views, sculpted cakes two, and a character selection
// adds the sculpted main view on top of the decorated set so the user can
// compare both styles.
func ViewsFor(style, character string) []string {
	if character != "" {
		return []string{ViewFront, ViewSide, ViewTop, ViewMain}
	}
	if style == StyleSculpted {
		return []string{ViewMain, ViewTop}
	}
	return []string{ViewFront, ViewSide, ViewTop}
}

// ViewStyle returns the cake style a single view belongs to.
func ViewStyle(view, requestStyle string) string {
	if view == ViewMain {
		return StyleSculpted
	}
	if requestStyle == StyleSculpted && view == ViewTop {
		return StyleSculpted
	}
	return StyleDecorated
}

// ViewIndex returns the position of a view within the canonical set for its
// style. Unknown views return 0.
func ViewIndex(view, style string) int {
	for i, v := range ViewsFor(style, "") {
		if v == view {
			return i
		}
	}
	return 0
}

func Label(view string) string {
	if l, ok := viewLabels[view]; ok {
		return l
	}
	return "Cake View"
}

func Labels(views []string) []string {
	labels := make([]string, len(views))
	for i, v := range views {
		labels[i] = Label(v)
	}
	return labels
}

// Build assembles the image prompt for one camera view.
func Build(req models.GenerateCakeRequest, view string) string {
	var b strings.Builder

	greeting := Greeting(req.Occasion)
	style := ViewStyle(view, req.Style())

	if style == StyleSculpted {
		b.WriteString("A professional photograph of a single sculpted novelty cake")
		if req.Character != "" {
			fmt.Fprintf(&b, " shaped entirely like %s", req.Character)
		}
		b.WriteString(". ")
	} else {
		b.WriteString("A professional photograph of a single decorated celebration cake")
		if req.Layers != "" {
			fmt.Fprintf(&b, " with %s layers", req.Layers)
		}
		if req.Character != "" {
			fmt.Fprintf(&b, ", topped with a %s figurine decoration", req.Character)
		}
		b.WriteString(". ")
	}

	switch view {
	case ViewFront:
		fmt.Fprintf(&b, "Camera straight on at eye level. The text \"%s %s\" is piped in icing across the front face of the cake, clearly legible. ", greeting, req.Name)
	case ViewSide:
		fmt.Fprintf(&b, "Camera at a three-quarter side angle showing the cake's depth and layer profile. The name \"%s\" appears on a small decorative plaque beside the cake. ", req.Name)
	case ViewTop:
		fmt.Fprintf(&b, "Camera directly overhead, top-down composition. The text \"%s %s\" is written in icing on the top surface of the cake. ", greeting, req.Name)
		if req.UserPhotoBase64 != "" {
			b.WriteString("An edible photo print of the attached picture is centered on the top of the cake, framed by piped icing. ")
		}
	case ViewMain:
		fmt.Fprintf(&b, "Camera at a slight hero angle showing the full sculpted form. A cake board banner reads \"%s %s\". ", greeting, req.Name)
	}

	if req.CakeType != "" {
		fmt.Fprintf(&b, "Cake flavor and finish: %s. ", req.CakeType)
	}
	if req.Theme != "" {
		fmt.Fprintf(&b, "Theme: %s. ", req.Theme)
	}
	if req.Colors != "" {
		fmt.Fprintf(&b, "Color palette: %s. ", req.Colors)
	}

	// Generative models drift towards multi-panel collages without explicit
	// instruction. Keep this anchored to exactly one cake per image.
	b.WriteString("Exactly one cake in the frame. No collage, no split panels, no grid of multiple images, no duplicate cakes. ")
	b.WriteString("Soft studio lighting, shallow depth of field, bakery product photography.")

	return b.String()
}

// BuildMessage assembles the text prompt for the greeting message generator.
func BuildMessage(req models.GenerateCakeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, warm greeting message for %s for the occasion of %s. ", req.Name, strings.ToLower(req.Occasion))
	fmt.Fprintf(&b, "Write it as the %s of the recipient, addressing your %s directly. ",
		SenderPerspective(req.Relation), strings.ToLower(req.Relation))
	fmt.Fprintf(&b, "Mention %s by name. ", req.Name)
	b.WriteString("Two or three sentences, heartfelt but not saccharine. Return only the message text with no quotes or preamble.")
	return b.String()
}
