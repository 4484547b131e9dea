package test

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	wordNamespace  = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	drawNamespaces = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
)

// WriteZip 按名称顺序写入 zip 文件
func WriteZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// ReadZipEntry 读取 zip 中的一个条目
func ReadZipEntry(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	f, err := zr.Open(name)
	require.NoError(t, err, "entry %s", name)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}

// WriteDocx 写入一个最小的 DOCX，body 为 w:body 的内部 XML
func WriteDocx(t *testing.T, path, body string) {
	t.Helper()
	WriteZip(t, path, map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document ` + wordNamespace + `><w:body>` + body + `</w:body></w:document>`,
	})
}

// HelloWorldBody 是 "Hello " + 粗体 "world" + "!" 组成的段落
const HelloWorldBody = `<w:p><w:r><w:t xml:space="preserve">Hello </w:t></w:r>` +
	`<w:r><w:rPr><w:b/></w:rPr><w:t>world</w:t></w:r><w:r><w:t>!</w:t></w:r></w:p>`

// WritePptx 写入一个最小的 PPTX，每个参数是一张幻灯片 p:spTree 的内部 XML
func WritePptx(t *testing.T, path string, slides ...string) {
	t.Helper()
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
	}
	for i, tree := range slides {
		name := filepath.ToSlash(filepath.Join("ppt", "slides", "slide"+strconv.Itoa(i+1)+".xml"))
		files[name] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<p:sld ` + drawNamespaces + `><p:cSld><p:spTree>` + tree + `</p:spTree></p:cSld></p:sld>`
	}
	WriteZip(t, path, files)
}

// TextShape 返回一个包含单个段落的文本框
func TextShape(paragraph string) string {
	return `<p:sp><p:txBody><a:bodyPr/>` + paragraph + `</p:txBody></p:sp>`
}
