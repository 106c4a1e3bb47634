// Package filters maps Gmail filter export entries to fixed-width rows.
package filters

import (
	"strings"

	"github.com/beevik/etree"
)

const (
	entryTag    = "entry"
	idTag       = "id"
	updatedTag  = "updated"
	propertyTag = "property"
	appsPrefix  = "apps"
	appsNSURI   = "http://schemas.google.com/apps/2006"
	attrName    = "name"
	attrValue   = "value"
)

var columns = map[string]bool{
	PropFrom:            true,
	PropSubject:         true,
	PropLabel:           true,
	PropShouldNeverSpam: true,
	PropShouldArchive:   true,
}

// Extract returns one row per entry element in document order.
func Extract(doc *etree.Document) ([]Row, Stats) {
	stats := Stats{Unmapped: map[string]int{}}
	var rows []Row

	walk(&doc.Element, func(e *etree.Element) {
		if !isTag(e, entryTag) {
			return
		}
		rows = append(rows, FromEntry(e))
		stats.Entries++
		countUnmapped(e, stats.Unmapped)
	})

	return rows, stats
}

// FromEntry builds the row for a single entry element.
func FromEntry(entry *etree.Element) Row {
	return Row{
		ID:              tagText(entry, idTag),
		Updated:         tagText(entry, updatedTag),
		From:            property(entry, PropFrom),
		Subject:         property(entry, PropSubject),
		Label:           property(entry, PropLabel),
		ShouldNeverSpam: property(entry, PropShouldNeverSpam).Or(False),
		ShouldArchive:   property(entry, PropShouldArchive).Or(False),
	}
}

func tagText(e *etree.Element, tag string) Field {
	found := first(e, func(c *etree.Element) bool { return isTag(c, tag) })
	if found == nil {
		return Field{}
	}
	return Some(textContent(found))
}

func property(e *etree.Element, name string) Field {
	found := first(e, func(c *etree.Element) bool {
		return isProperty(c) && c.SelectAttrValue(attrName, "") == name
	})
	if found == nil {
		return Field{}
	}
	return Some(found.SelectAttrValue(attrValue, ""))
}

// isTag matches unprefixed elements only; <x:id> is not an id.
func isTag(e *etree.Element, tag string) bool {
	return e.Space == "" && e.Tag == tag
}

func isProperty(e *etree.Element) bool {
	if e.Tag != propertyTag {
		return false
	}
	return e.Space == appsPrefix || e.NamespaceURI() == appsNSURI
}

func countUnmapped(entry *etree.Element, unmapped map[string]int) {
	walkDescendants(entry, func(c *etree.Element) {
		if !isProperty(c) {
			return
		}
		if name := c.SelectAttrValue(attrName, ""); !columns[name] {
			unmapped[name]++
		}
	})
}

// first returns the first descendant of e, in document order, matching fn.
func first(e *etree.Element, fn func(*etree.Element) bool) *etree.Element {
	for _, tok := range e.Child {
		c, ok := tok.(*etree.Element)
		if !ok {
			continue
		}
		if fn(c) {
			return c
		}
		if found := first(c, fn); found != nil {
			return found
		}
	}
	return nil
}

// walk visits e and its descendants in document order.
func walk(e *etree.Element, fn func(*etree.Element)) {
	fn(e)
	walkDescendants(e, fn)
}

func walkDescendants(e *etree.Element, fn func(*etree.Element)) {
	for _, tok := range e.Child {
		if c, ok := tok.(*etree.Element); ok {
			walk(c, fn)
		}
	}
}

// textContent concatenates all character data below e.
func textContent(e *etree.Element) string {
	var b strings.Builder
	var collect func(*etree.Element)
	collect = func(e *etree.Element) {
		for _, tok := range e.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				b.WriteString(t.Data)
			case *etree.Element:
				collect(t)
			}
		}
	}
	collect(e)
	return b.String()
}
