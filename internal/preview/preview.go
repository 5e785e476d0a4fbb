// Package preview renders the static Terraform preview of a project. Only
// the project name, provider, region and environment vary; the resource
// graph is not compiled.
package preview

import (
	"archive/zip"
	"bytes"
	"embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/iac-studio/blueprint/internal/project"
	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Files lists the generated file names in display order.
var Files = []string{"main.tf", "variables.tf", "outputs.tf", "README.md"}

// File is one rendered preview file.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type values struct {
	Name        string
	Provider    string
	Region      string
	Environment string
}

var templates = template.Must(template.New("preview").Funcs(template.FuncMap{
	"quote":    strconv.Quote,
	"upper":    strings.ToUpper,
	"provider": providerBlock,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Render returns the preview files of p in display order.
func Render(p *project.Project) ([]File, error) {
	v := values{
		Name:        p.Name,
		Provider:    p.Provider,
		Region:      p.Region,
		Environment: string(p.Environment),
	}
	out := make([]File, 0, len(Files))
	for _, name := range Files {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, name+".tmpl", v); err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInternal, "render preview failed").WithMeta("file", name)
		}
		out = append(out, File{Name: name, Content: buf.String()})
	}
	return out, nil
}

// WriteZip writes files as a zip archive stamped with modified.
func WriteZip(w io.Writer, files []File, modified time.Time) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return fmt.Errorf("create %s: %w", f.Name, err)
		}
		if _, err := io.WriteString(fw, f.Content); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}

// BundleName is the download name of the zip bundle.
func BundleName(p *project.Project) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, strings.TrimSpace(p.Name))
	if strings.Trim(name, "-") == "" {
		name = "project-" + p.ID
	}
	return name + "-terraform.zip"
}

func providerBlock(v values) string {
	switch v.Provider {
	case "azure":
		return "provider \"azurerm\" {\n  features {}\n}"
	case "gcp":
		return fmt.Sprintf("provider \"google\" {\n  region = %q\n}", v.Region)
	default:
		return fmt.Sprintf("provider \"aws\" {\n  region = %q\n}", v.Region)
	}
}
