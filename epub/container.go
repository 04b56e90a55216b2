// Package epub handles the book container: extracting the archive, locating
// the package document, scanning spine documents for annotatable text runs,
// and repackaging the annotated result. It is the annotation engine's text
// segment source and packaging sink; the engine itself never touches files.
package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/siherrmann/annotator/helper"
)

// softHyphens matches every encoding of the soft hyphen. They are invisible
// to readers but shift every offset the recognizer reports, so they are
// stripped before scanning.
var softHyphens = regexp.MustCompile("­|&shy;|&#xAD;|&#xad;|&#173;")

// Part is one XHTML spine document of the book.
type Part struct {
	// Path is the absolute path of the extracted file.
	Path string
	// Href is the manifest href, relative to the package document.
	Href string
}

// Container is an extracted EPUB book.
type Container struct {
	BookPath   string
	ExtractDir string

	opfPath string
	opfDoc  *xmlquery.Node

	// XHTMLFolder and ImageFolder are the directories holding spine
	// documents and images; hrefHasFolder flags record whether manifest
	// hrefs carry a folder prefix, which decides generated href prefixes.
	XHTMLFolder        string
	ImageFolder        string
	XHTMLHrefHasFolder bool
	ImageHrefHasFolder bool

	parts []Part
	log   *slog.Logger
}

// Open extracts the book next to itself and locates the package document
// via META-INF/container.xml. Any previous extraction folder is replaced.
func Open(bookPath string, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	extractDir := filepath.Join(filepath.Dir(bookPath), "extract")
	if err := os.RemoveAll(extractDir); err != nil {
		return nil, helper.NewError("clear extract folder", err)
	}
	if err := unzip(bookPath, extractDir); err != nil {
		return nil, helper.NewError("extract book", err)
	}

	c := &Container{
		BookPath:    bookPath,
		ExtractDir:  extractDir,
		XHTMLFolder: extractDir,
		ImageFolder: extractDir,
		log:         logger,
	}

	if err := c.locateOPF(); err != nil {
		return nil, err
	}
	if err := c.scanManifest(); err != nil {
		return nil, err
	}

	logger.Info("Opened book",
		slog.String("book", filepath.Base(bookPath)),
		slog.Int("parts", len(c.parts)))

	return c, nil
}

// locateOPF reads META-INF/container.xml and parses the package document.
func (c *Container) locateOPF() error {
	containerFile, err := os.Open(filepath.Join(c.ExtractDir, "META-INF", "container.xml"))
	if err != nil {
		return helper.NewError("open container.xml", err)
	}
	defer containerFile.Close()

	root, err := xmlquery.Parse(containerFile)
	if err != nil {
		return helper.NewError("parse container.xml", err)
	}

	rootfile := xmlquery.FindOne(root, "//*[local-name()='rootfile']")
	if rootfile == nil {
		return helper.NewError("locate rootfile", fmt.Errorf("container.xml has no rootfile element"))
	}
	fullPath := rootfile.SelectAttr("full-path")
	if fullPath == "" {
		return helper.NewError("locate rootfile", fmt.Errorf("rootfile has no full-path attribute"))
	}

	c.opfPath = filepath.Join(c.ExtractDir, filepath.FromSlash(fullPath))
	if _, err := os.Stat(c.opfPath); err != nil {
		found, findErr := findFile(c.ExtractDir, filepath.Base(fullPath))
		if findErr != nil {
			return helper.NewError("locate package document", findErr)
		}
		c.opfPath = found
	}

	opfFile, err := os.Open(c.opfPath)
	if err != nil {
		return helper.NewError("open package document", err)
	}
	defer opfFile.Close()

	c.opfDoc, err = xmlquery.Parse(opfFile)
	if err != nil {
		return helper.NewError("parse package document", err)
	}
	return nil
}

// scanManifest discovers the XHTML and image folders and collects the spine
// documents, stripping soft hyphens from each as it goes.
func (c *Container) scanManifest() error {
	for _, item := range xmlquery.Find(c.opfDoc, "//*[local-name()='item']") {
		mediaType := item.SelectAttr("media-type")
		href := item.SelectAttr("href")
		if href == "" {
			continue
		}

		if strings.HasPrefix(mediaType, "image/") {
			path, err := c.resolveHref(href)
			if err != nil {
				continue
			}
			c.ImageFolder = filepath.Dir(path)
			if strings.Contains(href, "/") {
				c.ImageHrefHasFolder = true
			}
			continue
		}

		if mediaType != "application/xhtml+xml" || item.SelectAttr("properties") == "nav" {
			continue
		}

		path, err := c.resolveHref(href)
		if err != nil {
			return helper.NewError("locate spine document", err)
		}
		c.XHTMLFolder = filepath.Dir(path)
		if strings.Contains(href, "/") {
			c.XHTMLHrefHasFolder = true
		}

		if err := c.stripSoftHyphens(path); err != nil {
			return err
		}
		c.parts = append(c.parts, Part{Path: path, Href: href})
	}
	return nil
}

// resolveHref resolves a manifest href against the package document folder,
// falling back to a recursive search for books with unusual layouts.
func (c *Container) resolveHref(href string) (string, error) {
	path := filepath.Join(filepath.Dir(c.opfPath), filepath.FromSlash(href))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return findFile(c.ExtractDir, filepath.Base(filepath.FromSlash(href)))
}

func (c *Container) stripSoftHyphens(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return helper.NewError("read spine document", err)
	}
	cleaned := softHyphens.ReplaceAll(data, nil)
	if len(cleaned) == len(data) {
		return nil
	}
	if err := os.WriteFile(path, cleaned, 0644); err != nil {
		return helper.NewError("write spine document", err)
	}
	return nil
}

// Parts returns the spine documents in spine order.
func (c *Container) Parts() []Part {
	return c.parts
}

// ReadPart returns the current text of a spine document.
func (c *Container) ReadPart(part Part) (string, error) {
	data, err := os.ReadFile(part.Path)
	if err != nil {
		return "", helper.NewError("read spine document", err)
	}
	return string(data), nil
}

// WritePart replaces the text of a spine document. The annotated buffer is
// written whole so a partial rewrite is never visible to packaging.
func (c *Container) WritePart(part Part, content string) error {
	if err := os.WriteFile(part.Path, []byte(content), 0644); err != nil {
		return helper.NewError("write spine document", err)
	}
	return nil
}

// WriteFootnoteDoc writes a generated reference document into the XHTML
// folder.
func (c *Container) WriteFootnoteDoc(filename string, content string) error {
	if err := os.WriteFile(filepath.Join(c.XHTMLFolder, filename), []byte(content), 0644); err != nil {
		return helper.NewError("write footnote document", err)
	}
	return nil
}

// CopyImage copies an illustrative image into the package's image folder.
func (c *Container) CopyImage(filename string, sourcePath string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return helper.NewError("open image", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(c.ImageFolder, filename))
	if err != nil {
		return helper.NewError("create image", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return helper.NewError("copy image", err)
	}
	return nil
}

// ImagePrefix returns the relative href prefix from the XHTML folder to the
// image folder.
func (c *Container) ImagePrefix() string {
	prefix := ""
	if c.XHTMLHrefHasFolder {
		prefix += "../"
	}
	if c.ImageHrefHasFolder {
		prefix += filepath.Base(c.ImageFolder) + "/"
	}
	return prefix
}

// Repackage zips the extraction folder into a new book named by the
// annotation kinds produced (base name suffixed _x_ray and/or _word_wise),
// removes the extraction folder, and returns the new book path.
func (c *Container) Repackage(hasEntities bool, hasLemmas bool) (string, error) {
	base := strings.TrimSuffix(filepath.Base(c.BookPath), filepath.Ext(c.BookPath))
	if hasEntities {
		base += "_x_ray"
	}
	if hasLemmas {
		base += "_word_wise"
	}
	outPath := filepath.Join(filepath.Dir(c.BookPath), base+".epub")

	if err := zipFolder(c.ExtractDir, outPath); err != nil {
		return "", helper.NewError("repackage book", err)
	}
	if err := os.RemoveAll(c.ExtractDir); err != nil {
		return "", helper.NewError("remove extract folder", err)
	}

	c.log.Info("Repackaged book", slog.String("output", filepath.Base(outPath)))
	return outPath, nil
}

func unzip(archivePath string, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		path := filepath.Join(destDir, filepath.FromSlash(file.Name))
		if !strings.HasPrefix(path, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes extraction folder", file.Name)
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		src, err := file.Open()
		if err != nil {
			return err
		}
		dst, err := os.Create(path)
		if err != nil {
			src.Close()
			return err
		}
		if _, err := io.Copy(dst, src); err != nil {
			src.Close()
			dst.Close()
			return err
		}
		src.Close()
		dst.Close()
	}
	return nil
}

// zipFolder archives a folder as an EPUB: the mimetype entry comes first
// and uncompressed, everything else deflated.
func zipFolder(srcDir string, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	writer := zip.NewWriter(out)
	defer writer.Close()

	mimetypePath := filepath.Join(srcDir, "mimetype")
	if data, err := os.ReadFile(mimetypePath); err == nil {
		header := &zip.FileHeader{Name: "mimetype", Method: zip.Store}
		w, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}

	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if name == "mimetype" {
			return nil
		}
		w, err := writer.Create(name)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
}

func findFile(root string, name string) (string, error) {
	var found string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.Name() == name {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("file %q not found under %q", name, root)
	}
	return found, nil
}
