package epub

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/siherrmann/annotator/helper"
)

// MediaType infers the manifest media type of a file from its extension.
func MediaType(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "xhtml", "html":
		return "application/xhtml+xml"
	case "svg":
		return "image/svg+xml"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "image/" + ext
	}
}

// UpdateOPF registers the generated reference documents and copied images in
// the package document: documents go into manifest and spine, images into
// the manifest only. The documents are expected to already exist in the
// XHTML folder.
func (c *Container) UpdateOPF(docs []string, images []string) error {
	manifest := xmlquery.FindOne(c.opfDoc, "//*[local-name()='manifest']")
	if manifest == nil {
		return helper.NewError("update package document", fmt.Errorf("package document has no manifest"))
	}
	spine := xmlquery.FindOne(c.opfDoc, "//*[local-name()='spine']")
	if spine == nil {
		return helper.NewError("update package document", fmt.Errorf("package document has no spine"))
	}

	docPrefix := ""
	if c.XHTMLHrefHasFolder {
		docPrefix = filepath.Base(c.XHTMLFolder) + "/"
	}
	imagePrefix := ""
	if c.ImageHrefHasFolder {
		imagePrefix = filepath.Base(c.ImageFolder) + "/"
	}

	for _, doc := range docs {
		id := strings.TrimSuffix(doc, filepath.Ext(doc))
		addManifestItem(manifest, id, docPrefix+doc, MediaType(doc))

		itemref := newElement("itemref", map[string]string{"idref": id})
		xmlquery.AddChild(spine, itemref)
	}

	for _, image := range images {
		addManifestItem(manifest, image, imagePrefix+image, MediaType(image))
	}

	if err := os.WriteFile(c.opfPath, []byte(c.opfDoc.OutputXML(false)), 0644); err != nil {
		return helper.NewError("write package document", err)
	}
	return nil
}

func addManifestItem(manifest *xmlquery.Node, id string, href string, mediaType string) {
	item := newElement("item", map[string]string{
		"id":         id,
		"href":       href,
		"media-type": mediaType,
	})
	xmlquery.AddChild(manifest, item)
}

func newElement(name string, attrs map[string]string) *xmlquery.Node {
	node := &xmlquery.Node{Type: xmlquery.ElementNode, Data: name}
	// Attribute order in the output is id, href, media-type for items.
	for _, key := range []string{"id", "href", "media-type", "idref"} {
		if value, ok := attrs[key]; ok {
			node.Attr = append(node.Attr, xmlquery.Attr{
				Name:  xml.Name{Local: key},
				Value: value,
			})
		}
	}
	return node
}
