package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsPrefixes(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="urn:w"><!-- note --><w:body><w:p><w:r><w:t xml:space="preserve">a &amp; b</w:t></w:r></w:p></w:body></w:document>`

	root, err := Parse([]byte(src))
	require.NoError(t, err)

	doc := root.Child("w:document")
	require.NotNil(t, doc)
	ns, ok := doc.Attr("xmlns:w")
	assert.True(t, ok)
	assert.Equal(t, "urn:w", ns)

	var texts []string
	for el := range doc.Find("w:t") {
		texts = append(texts, el.InnerText())
		space, _ := el.Attr("xml:space")
		assert.Equal(t, "preserve", space)
	}
	assert.Equal(t, []string{"a & b"}, texts)

	out, err := root.Bytes()
	require.NoError(t, err)
	got := string(out)
	assert.Contains(t, got, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	assert.Contains(t, got, `<w:document xmlns:w="urn:w">`)
	assert.Contains(t, got, `<!-- note -->`)
	assert.Contains(t, got, `<w:t xml:space="preserve">a &amp; b</w:t>`)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`<a><b></a>`))
	assert.Error(t, err)

	_, err = Parse([]byte(`<a>`))
	assert.Error(t, err)
}

func TestFindDoesNotDescendIntoMatches(t *testing.T) {
	root, err := Parse([]byte(`<x><p id="1"><p id="nested"/></p><t><p id="2"/></t></x>`))
	require.NoError(t, err)

	var ids []string
	for p := range root.Find("p") {
		id, _ := p.Attr("id")
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestMutation(t *testing.T) {
	root, err := Parse([]byte(`<p><r>1</r><r>2</r><end/></p>`))
	require.NoError(t, err)
	p := root.Child("p")

	first := p.Child("r")
	assert.Equal(t, 0, p.Remove(first))
	assert.Equal(t, -1, p.Remove(first))
	assert.Nil(t, first.Parent)

	p.Insert(0, NewElement("r", Attr{Name: "k", Value: "v"}))

	out, err := root.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `<p><r k="v"></r><r>2</r><end></end></p>`, string(out))

	r := p.Child("r")
	r.SetAttr("k", "w")
	r.SetAttr("z", "1")
	v, _ := r.Attr("k")
	assert.Equal(t, "w", v)
	assert.Len(t, r.Attrs, 2)
}
