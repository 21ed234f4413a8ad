package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Exporter hashes and writes a paper's PDFs, source/translated Markdown,
// and images into the static tree, content-addressed by SHA-256.
// snapshot.Writer.Build calls ExportPaper once per paper, in input order,
// without a worker pool. ExportPaper does not mutate the snapshot DB, it
// only returns an ExportResult (the Manifest plus content hashes) for the
// single-writer transaction to persist; it does not write summary or
// manifest JSON files into the static tree.
type Exporter struct {
	ExportDir string
}

func NewExporter(exportDir string) *Exporter {
	return &Exporter{ExportDir: exportDir}
}

// ExportInput is everything ExportPaper needs about one paper's assets.
type ExportInput struct {
	PaperID            string
	FirstAuthor        string
	Year               string
	Title              string
	PDFPath            string
	SourceMDPath       string
	Translations       map[string]string // lang -> path
	Images             []string
	Summaries          map[string]string // template -> markdown
	AvailableTemplates []string
	Metadata           map[string]interface{}
}

// ExportResult is what ExportPaper produces for one paper.
type ExportResult struct {
	Manifest     Manifest
	SourceHash   string
	PDFHash      string
	Translations map[string]string // lang -> content hash
}

var imageRefRE = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)

// ExportPaper hashes and writes every asset referenced by in, rewriting
// Markdown image references to the content-addressed /images/<hash>.<ext>
// form so the exported folder renders correctly offline.
func (e *Exporter) ExportPaper(in ExportInput) (*ExportResult, error) {
	imageHashes, err := e.exportImages(in.Images)
	if err != nil {
		return nil, fmt.Errorf("exporting images for %s: %w", in.PaperID, err)
	}

	result := &ExportResult{Translations: map[string]string{}}
	manifest := Manifest{
		PaperID:          in.PaperID,
		SummaryTemplates: in.AvailableTemplates,
		FolderName:       FolderName(in.FirstAuthor, in.Year, in.Title, in.PaperID),
		FolderNameShort:  FolderNameShort(in.FirstAuthor, in.Year, in.PaperID),
	}

	if in.PDFPath != "" {
		hash, err := HashFile(in.PDFPath)
		if err != nil {
			manifest.PDF = &AssetEntry{Status: StatusMissing}
		} else {
			relPath, err := WriteContentAddressed(e.ExportDir, "pdf", hash, "pdf", in.PDFPath)
			if err != nil {
				return nil, fmt.Errorf("writing pdf for %s: %w", in.PaperID, err)
			}
			manifest.PDF = &AssetEntry{StaticPath: relPath, SHA256: hash, Status: StatusAvailable, Ext: "pdf"}
			result.PDFHash = hash
		}
	}

	if in.SourceMDPath != "" {
		entry, hash, err := e.exportMarkdown(in.SourceMDPath, imageHashes)
		if err != nil {
			manifest.SourceMD = &AssetEntry{Status: StatusMissing}
		} else {
			manifest.SourceMD = entry
			result.SourceHash = hash
		}
	}

	langs := make([]string, 0, len(in.Translations))
	for lang := range in.Translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		path := in.Translations[lang]
		entry, hash, err := e.exportTranslatedMarkdown(lang, path, imageHashes)
		if err != nil {
			manifest.TranslatedMD = append(manifest.TranslatedMD, AssetEntry{Status: StatusMissing})
			continue
		}
		manifest.TranslatedMD = append(manifest.TranslatedMD, *entry)
		result.Translations[lang] = hash
	}

	imgPaths := make([]string, 0, len(in.Images))
	for _, p := range in.Images {
		imgPaths = append(imgPaths, p)
	}
	sort.Strings(imgPaths)
	for _, orig := range imgPaths {
		h, ok := imageHashes[orig]
		if !ok {
			manifest.Images = append(manifest.Images, AssetEntry{Status: StatusMissing})
			continue
		}
		ext := extOf(orig)
		manifest.Images = append(manifest.Images, AssetEntry{
			StaticPath: WritePathFor("images", h, ext),
			SHA256:     h,
			Status:     StatusAvailable,
			Ext:        ext,
		})
	}

	result.Manifest = manifest
	return result, nil
}

// exportImages hashes and writes every image once, deduplicating by
// content hash so an image referenced from both source and translation
// Markdown yields a single asset URL.
func (e *Exporter) exportImages(paths []string) (map[string]string, error) {
	hashes := make(map[string]string, len(paths))
	for _, p := range paths {
		hash, err := HashFile(p)
		if err != nil {
			continue // missing image: recorded as StatusMissing by the caller
		}
		ext := extOf(p)
		if _, err := WriteContentAddressed(e.ExportDir, "images", hash, ext, p); err != nil {
			return nil, err
		}
		hashes[p] = hash
	}
	return hashes, nil
}

func (e *Exporter) exportMarkdown(path string, imageHashes map[string]string) (*AssetEntry, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	rewritten := rewriteImageRefs(string(data), imageHashes)
	hash := HashBytes([]byte(rewritten))
	relPath, err := WriteBytesContentAddressed(e.ExportDir, "md", hash, "md", []byte(rewritten))
	if err != nil {
		return nil, "", err
	}
	return &AssetEntry{StaticPath: relPath, SHA256: hash, Status: StatusAvailable, Ext: "md"}, hash, nil
}

func (e *Exporter) exportTranslatedMarkdown(lang, path string, imageHashes map[string]string) (*AssetEntry, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	rewritten := rewriteImageRefs(string(data), imageHashes)
	hash := HashBytes([]byte(rewritten))
	relPath := TranslationPathFor(lang, hash)
	destPath := filepath.Join(e.ExportDir, filepath.FromSlash(relPath))
	if _, err := os.Stat(destPath); err != nil {
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return nil, "", err
		}
		if err := os.WriteFile(destPath, []byte(rewritten), 0o644); err != nil {
			return nil, "", err
		}
	}
	return &AssetEntry{StaticPath: relPath, SHA256: hash, Status: StatusAvailable, Ext: "md"}, hash, nil
}

// rewriteImageRefs rewrites every `![alt](path)` reference whose path was
// hashed to its content-addressed /images/<hash>.<ext> form, matching
// either an exact path or a basename match against the reference.
func rewriteImageRefs(markdown string, imageHashes map[string]string) string {
	baseToRel := make(map[string]string, len(imageHashes))
	for orig, hash := range imageHashes {
		baseToRel[filepath.Base(orig)] = WritePathFor("images", hash, extOf(orig))
	}

	return imageRefRE.ReplaceAllStringFunc(markdown, func(match string) string {
		sub := imageRefRE.FindStringSubmatch(match)
		alt, ref := sub[1], sub[2]
		if rel, ok := imageHashes[ref]; ok {
			return "![" + alt + "](" + WritePathFor("images", rel, extOf(ref)) + ")"
		}
		if rel, ok := baseToRel[filepath.Base(ref)]; ok {
			return "![" + alt + "](" + rel + ")"
		}
		return match
	})
}

func extOf(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}
