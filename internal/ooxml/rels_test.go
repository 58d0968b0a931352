package ooxml

import "testing"

func TestNextIDSkipsNonNumericAndTaken(t *testing.T) {
	rs := newRelationships("word/document.xml")
	rs.items = []Relationship{
		{ID: "rId3"},
		{ID: "rIdImg7"},
		{ID: "custom"},
		{ID: "rId1"},
	}

	if got := rs.nextID(); got != "rId4" {
		t.Errorf("expected rId4, got %s", got)
	}

	rs.items = append(rs.items, Relationship{ID: "rId4x"})
	if got := rs.nextID(); got != "rId4" {
		t.Errorf("expected rId4, got %s", got)
	}
}

func TestNextIDEmpty(t *testing.T) {
	if got := newRelationships("").nextID(); got != "rId1" {
		t.Errorf("expected rId1, got %s", got)
	}
}

func TestRelsPartNames(t *testing.T) {
	cases := []struct {
		source string
		rels   string
	}{
		{"", "_rels/.rels"},
		{"word/document.xml", "word/_rels/document.xml.rels"},
		{"xl/workbook.xml", "xl/_rels/workbook.xml.rels"},
	}
	for _, c := range cases {
		if got := relsPartName(c.source); got != c.rels {
			t.Errorf("relsPartName(%q) = %q, want %q", c.source, got, c.rels)
		}
		source, ok := relsSource(c.rels)
		if !ok || source != c.source {
			t.Errorf("relsSource(%q) = %q, %v; want %q", c.rels, source, ok, c.source)
		}
	}

	if _, ok := relsSource("word/document.xml"); ok {
		t.Error("word/document.xml is not a relationship part")
	}
}

func TestResolveTarget(t *testing.T) {
	cases := []struct {
		source, target, want string
	}{
		{"", "word/document.xml", "word/document.xml"},
		{"", "/xl/workbook.xml", "xl/workbook.xml"},
		{"word/document.xml", "settings.xml", "word/settings.xml"},
		{"word/document.xml", "../customXml/item1.xml", "customXml/item1.xml"},
		{"xl/workbook.xml", "worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
	}
	for _, c := range cases {
		if got := resolveTarget(c.source, c.target); got != c.want {
			t.Errorf("resolveTarget(%q, %q) = %q, want %q", c.source, c.target, got, c.want)
		}
	}
}

func TestParseRelationshipsRejectsDuplicateIDs(t *testing.T) {
	data := []byte(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="a" Target="x"/><Relationship Id="rId1" Type="b" Target="y"/></Relationships>`)
	if _, err := parseRelationships("", data); err == nil {
		t.Error("expected error for duplicate ids")
	}
}

func TestRelationshipsMarshalRoundTrip(t *testing.T) {
	rs := newRelationships("word/document.xml")
	rs.Add("urn:a", "https://example.com/?a=1&b=2", External)
	rs.Add("urn:b", "media/image1.png", Internal)

	data, err := rs.marshal()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := parseRelationships("word/document.xml", data)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Len() != 2 {
		t.Fatalf("expected 2 relationships, got %d", parsed.Len())
	}
	first, _ := parsed.Get("rId1")
	if first.Target != "https://example.com/?a=1&b=2" || first.Mode() != External {
		t.Errorf("unexpected first relationship: %+v", first)
	}
	second, _ := parsed.Get("rId2")
	if second.Mode() != Internal || second.TargetMode != "" {
		t.Errorf("internal relationship should omit TargetMode: %+v", second)
	}
}
