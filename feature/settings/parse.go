package settings

import (
	"encoding/xml"
	"fmt"
	"strings"
)

type xmlSettings struct {
	FTPAddress        *string     `xml:"ftpAddress"`
	FTPUser           *string     `xml:"ftpUser"`
	FTPPassword       *string     `xml:"ftpPassword"`
	FTPArmaPath       *string     `xml:"ftpArmaPath"`
	FTPParFileName    *string     `xml:"ftpParFileName"`
	KeystoreURL       *string     `xml:"keystoreUrl"`
	KeyMappingFileURL *string     `xml:"keyMappingFileUrl"`
	KeyStrategy       *string     `xml:"keyStrategy"`
	ManualKeys        *xmlManual  `xml:"manualKeys"`
	BlacklistKeys     *xmlManual  `xml:"blacklistKeys"`
	ClientOnlyModList *xmlManual  `xml:"clientOnlyModList"`
	LatestVersion     *xmlVersion `xml:"latestVersion"`
	ServerConfigs     []xmlConfig `xml:"serverConfig"`
}

// xmlManual holds the <key> and <mod> children of a list element.
type xmlManual struct {
	Keys []string `xml:"key"`
	Mods []string `xml:"mod"`
}

type xmlVersion struct {
	Major *string `xml:"majorVersion"`
	Minor *string `xml:"minorVersion"`
	Patch *string `xml:"patchVersion"`
}

type xmlConfig struct {
	Name                     *string    `xml:"name,attr"`
	PlayWithSixConfigFileURL *string    `xml:"playWithSixConfigFileUrl"`
	ParFileSourceURL         *string    `xml:"parFileSourceUrl"`
	ServerOnlyMods           *xmlManual `xml:"serverOnlyMods"`
	CopyFiles                []xmlCopy  `xml:"copyFile"`
}

type xmlCopy struct {
	Source      *string `xml:"source,attr"`
	Destination *string `xml:"destination,attr"`
}

// Parse decodes a settings document.
func Parse(data []byte) (*ServerSettings, error) {
	var doc xmlSettings
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid settings document: %w", err)
	}

	s := &ServerSettings{}
	var err error
	required := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"ftpAddress", doc.FTPAddress, &s.FTPAddress},
		{"ftpUser", doc.FTPUser, &s.FTPUser},
		{"ftpPassword", doc.FTPPassword, &s.FTPPassword},
		{"ftpArmaPath", doc.FTPArmaPath, &s.FTPBasePath},
		{"ftpParFileName", doc.FTPParFileName, &s.FTPParFileName},
	}
	for _, r := range required {
		if *r.dst, err = requireText(r.name, r.src); err != nil {
			return nil, err
		}
	}
	if !strings.HasSuffix(s.FTPBasePath, "/") {
		s.FTPBasePath += "/"
	}

	if s.KeyStrategy, err = ParseKeyStrategy(optionalText(doc.KeyStrategy)); err != nil {
		return nil, err
	}
	if s.KeyStrategy == StrategyMapping {
		if s.KeystoreURL, err = requireText("keystoreUrl", doc.KeystoreURL); err != nil {
			return nil, err
		}
		if s.KeyMappingFileURL, err = requireText("keyMappingFileUrl", doc.KeyMappingFileURL); err != nil {
			return nil, err
		}
	} else {
		s.KeystoreURL = optionalText(doc.KeystoreURL)
		s.KeyMappingFileURL = optionalText(doc.KeyMappingFileURL)
	}

	if doc.ManualKeys == nil {
		return nil, &MissingFieldError{Field: "manualKeys"}
	}
	s.ManualKeys = values(doc.ManualKeys.Keys)
	s.ManualMods = values(doc.ManualKeys.Mods)
	// Probed keys come from the server itself; manual keys still need a keystore.
	if s.KeyStrategy == StrategyProbe && len(s.ManualKeys) > 0 && s.KeystoreURL == "" {
		return nil, &MissingFieldError{Field: "keystoreUrl"}
	}

	if doc.BlacklistKeys != nil {
		s.BlacklistedKeys = values(doc.BlacklistKeys.Keys)
	}

	if doc.ClientOnlyModList == nil {
		return nil, &MissingFieldError{Field: "clientOnlyModList"}
	}
	s.ClientOnlyMods = values(doc.ClientOnlyModList.Mods)

	if doc.LatestVersion != nil {
		if s.LatestVersion, err = parseXMLVersion(doc.LatestVersion); err != nil {
			return nil, err
		}
	}

	for i, xc := range doc.ServerConfigs {
		c, err := parseConfig(i, xc)
		if err != nil {
			return nil, err
		}
		s.Configs = append(s.Configs, c)
	}

	return s, nil
}

func parseConfig(index int, xc xmlConfig) (Config, error) {
	var c Config
	var err error
	if c.Name, err = requireText(fmt.Sprintf("serverConfig[%d].name", index), xc.Name); err != nil {
		return c, err
	}
	field := func(name string) string {
		return fmt.Sprintf("serverConfig[%s].%s", c.Name, name)
	}
	if c.ModListURL, err = requireText(field("playWithSixConfigFileUrl"), xc.PlayWithSixConfigFileURL); err != nil {
		return c, err
	}
	if c.ParFileURL, err = requireText(field("parFileSourceUrl"), xc.ParFileSourceURL); err != nil {
		return c, err
	}
	if xc.ServerOnlyMods != nil {
		c.ServerOnlyMods = values(xc.ServerOnlyMods.Mods)
	}
	for _, cf := range xc.CopyFiles {
		// Malformed entries are ignored.
		if cf.Source == nil || cf.Destination == nil {
			continue
		}
		c.ExtraFiles = append(c.ExtraFiles, ExtraFile{
			Source:      strings.TrimSpace(*cf.Source),
			Destination: strings.TrimSpace(*cf.Destination),
		})
	}
	return c, nil
}

func parseXMLVersion(xv *xmlVersion) (*Version, error) {
	parts := []struct {
		name string
		src  *string
	}{
		{"latestVersion.majorVersion", xv.Major},
		{"latestVersion.minorVersion", xv.Minor},
		{"latestVersion.patchVersion", xv.Patch},
	}
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		text, err := requireText(p.name, p.src)
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	v, err := ParseVersion(strings.Join(texts, "."))
	if err != nil {
		return nil, fmt.Errorf("invalid latestVersion: %w", err)
	}
	return &v, nil
}

func requireText(field string, v *string) (string, error) {
	if v == nil {
		return "", &MissingFieldError{Field: field}
	}
	return strings.TrimSpace(*v), nil
}

func optionalText(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func values(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
