package build

import (
	"bytes"
	"os"
	"strings"
	"text/template"

	"github.com/go-ini/ini"
)

// DescriptorFile is the runtime descriptor's path inside the staging tree.
const DescriptorFile = "runtime/php.conf"

const (
	runtimeSection    = "PHP Runtime Configuration"
	extensionsSection = "Extensions"
)

// Descriptor is the content of runtime/php.conf.
type Descriptor struct {
	Version    string
	AppName    string
	AppVersion string
	OutputDir  string
	// Extensions is the `php -m` listing, written verbatim.
	Extensions string
}

var descriptorTmpl = template.Must(template.New("php.conf").Funcs(template.FuncMap{"value": iniValue}).Parse(`[PHP Runtime Configuration]
version = {{value .Version}}
app_name = {{value .AppName}}
app_version = {{value .AppVersion}}
output_dir = {{value .OutputDir}}

[Extensions]
{{.Extensions}}
`))

// iniValue wraps v in backquotes when the ini reader would otherwise trim it
// or take its leading quote as a delimiter.
func iniValue(v string) string {
	if v != strings.TrimSpace(v) || strings.HasPrefix(v, "`") || strings.HasPrefix(v, `"""`) {
		return "`" + v + "`"
	}
	return v
}

// Render returns the descriptor text.
func (d Descriptor) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := descriptorTmpl.Execute(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Modules returns the extension names in Extensions, skipping the
// "[PHP Modules]" style headings and blank lines.
func (d Descriptor) Modules() []string {
	var mods []string
	for _, line := range strings.Split(d.Extensions, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		mods = append(mods, line)
	}
	return mods
}

// ReadDescriptor parses a php.conf written by the pipeline. Extensions comes
// back as one module name per line.
func ReadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, err
	}

	// The `php -m` listing carries its own [..] headings and bare module
	// names, so it is read as raw bodies and boolean keys.
	f, err := ini.LoadSources(ini.LoadOptions{
		UnparseableSections:     []string{extensionsSection},
		AllowBooleanKeys:        true,
		IgnoreInlineComment:     true,
		PreserveSurroundedQuote: true,
	}, data)
	if err != nil {
		return Descriptor{}, err
	}

	rt := f.Section(runtimeSection)
	d := Descriptor{
		Version:    rt.Key("version").String(),
		AppName:    rt.Key("app_name").String(),
		AppVersion: rt.Key("app_version").String(),
		OutputDir:  rt.Key("output_dir").String(),
	}

	var mods []string
	mods = append(mods, Descriptor{Extensions: f.Section(extensionsSection).Body()}.Modules()...)
	for _, s := range f.Sections() {
		switch s.Name() {
		case ini.DefaultSection, runtimeSection, extensionsSection:
			continue
		}
		mods = append(mods, s.KeyStrings()...)
	}
	d.Extensions = strings.Join(mods, "\n")
	return d, nil
}
