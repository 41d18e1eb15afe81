package llmclient

import (
	"context"
	"fmt"
	"hash/fnv"

	"frpengine/internal/types"
)

// FakeClient returns deterministic text per level for offline runs and tests.
// Each reply carries a scratch block followed by the final analysis.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

var fakeBodies = map[types.Level]string{
	types.L1: "The material concentrates a core issue with systemic consequences. " +
		"Several parties carry exposure that is not visible on first reading. " +
		"The timing matters because current rules are shifting. " +
		"Its relevance extends beyond the immediate text.",
	types.L2: "Three pillars carry the structure of the material. " +
		"The first pillar sets the governing rule. " +
		"The second pillar allocates obligations between the parties. " +
		"The third pillar constrains how disputes escalate. " +
		"Together they make the arrangement stable but brittle under stress.\n" +
		"- Governing rule\n- Allocation of obligations\n- Escalation constraint",
	types.L3: "The pillars reinforce each other while the rule is uncontested. " +
		"Tension appears when obligations collide with the escalation constraint. " +
		"A feedback loop forms as each party hedges against the other. " +
		"Hedging raises costs and narrows options. " +
		"Past a threshold the system flips from cooperation to litigation. " +
		"That phase transition is the main vulnerability.",
	types.L4: "In a single clause the entire logic appears in miniature. " +
		"It mirrors the macro stakes identified at L1. " +
		"It embodies the structural pillars described at L2. " +
		"It reproduces the interaction dynamics traced at L3. " +
		"The clause shows how small drafting choices carry systemic weight. " +
		"This zoom reveals a dependency that the earlier levels only implied.",
	types.L5: "The core lesson: structure set early decides how conflict unfolds later. " +
		"The analyzed case shows that principle at every level. " +
		"Decision-makers should test escalation paths before committing. " +
		"The same pattern applies to other regulated arrangements.\n" +
		"- Test escalation paths before signing",
}

func (f *FakeClient) GenerateText(ctx context.Context, prompt string, _ types.GenerationPreferences) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	level := StageFrom(ctx)
	body, ok := fakeBodies[level]
	if !ok {
		body = "No level was tagged on this request."
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	return fmt.Sprintf("<think>fake reasoning for %s over prompt %08x</think>\n%s", level, h.Sum32(), body), nil
}
