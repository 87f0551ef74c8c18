package markdown

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const nilSampleBody = "Dictionaries reject nil values:\n\n" +
	"```objc\n" +
	"dict[@\"goodbye!\"] = nil;   // crashes, probably\n" +
	"```\n"

func TestRender_BasicMarkdown_ProducesHTML(t *testing.T) {
	out, err := Render([]byte("# Nothing\n\nSome *emphasis* and a [link](https://example.com).\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "<h1>Nothing</h1>")
	require.Contains(t, string(out), "<em>emphasis</em>")
	require.Contains(t, string(out), `<a href="https://example.com">link</a>`)
}

func TestRender_CodeBlock_EscapedButNotReflowed(t *testing.T) {
	out, err := Render([]byte(nilSampleBody))
	require.NoError(t, err)

	// Exact authored line, with only HTML escaping applied. The trailing
	// comment and its triple-space indent must survive.
	require.Contains(t, string(out), `dict[@&quot;goodbye!&quot;] = nil;   // crashes, probably`)
	require.Contains(t, string(out), `<code class="language-objc">`)
}

func TestRender_UnterminatedFence_ReturnsRenderError(t *testing.T) {
	body := []byte("Intro.\n\n```swift\nlet x: Int? = nil\n")

	_, err := Render(body)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnterminatedFence))
}

func TestCodeSegments_RoundTripIdentity(t *testing.T) {
	segments, err := CodeSegments([]byte(nilSampleBody))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	require.Equal(t, "objc", segments[0].Language)
	require.Equal(t, []byte("dict[@\"goodbye!\"] = nil;   // crashes, probably\n"), segments[0].Content)
}

func TestCodeSegments_MultipleBlocksPreserveOrder(t *testing.T) {
	body := []byte("```objc\nNSNull *n;\n```\n\ntext\n\n```swift\nvar s: String?\n```\n")

	segments, err := CodeSegments(body)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	require.Equal(t, "objc", segments[0].Language)
	require.Equal(t, "swift", segments[1].Language)
	require.Equal(t, []byte("NSNull *n;\n"), segments[0].Content)
	require.Equal(t, []byte("var s: String?\n"), segments[1].Content)
}

func TestValidateFences_ClosedFence_NoError(t *testing.T) {
	require.NoError(t, ValidateFences([]byte("```\ncode\n```\n")))
}

func TestValidateFences_TildeFence_MatchedByLengthAndChar(t *testing.T) {
	// A shorter closing run does not close the fence.
	require.Error(t, ValidateFences([]byte("~~~~\ncode\n~~~\n")))
	require.NoError(t, ValidateFences([]byte("~~~~\ncode\n~~~~\n")))
}

func TestValidateFences_BackticksInsideTildeFence_Ignored(t *testing.T) {
	require.NoError(t, ValidateFences([]byte("~~~\n```\nnot a fence open\n~~~\n")))
}

func TestValidateFences_NoFences_NoError(t *testing.T) {
	require.NoError(t, ValidateFences([]byte("plain paragraph\n\n    indented code\n")))
}
