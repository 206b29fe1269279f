package screen

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
)

// Platform names returned by DetectPlatform.
const (
	Android = "android"
	IOS     = "ios"
)

// iOS element types that react to taps without a clickable attribute.
var iosTappable = map[string]bool{
	"XCUIElementTypeButton":           true,
	"XCUIElementTypeCell":             true,
	"XCUIElementTypeLink":             true,
	"XCUIElementTypeSwitch":           true,
	"XCUIElementTypeSegmentedControl": true,
	"XCUIElementTypeTextField":        true,
	"XCUIElementTypeSecureTextField":  true,
	"XCUIElementTypeSearchField":      true,
	"XCUIElementTypeTab":              true,
	"XCUIElementTypeMenuItem":         true,
}

// DetectPlatform guesses the platform from iOS-specific markers.
func DetectPlatform(xmlData string) string {
	if strings.Contains(xmlData, "XCUIElementType") || strings.Contains(xmlData, "AppiumAUT") {
		return IOS
	}
	return Android
}

// Parse flattens a page source into document order, setting depth, parent
// links and Index. The platform is auto-detected.
func Parse(xmlData string) ([]*Element, string, error) {
	platform := DetectPlatform(xmlData)
	roots, err := decodeTree(xmlData, platform)
	if err != nil {
		return nil, platform, err
	}

	var elements []*Element
	for _, root := range roots {
		elements = flatten(elements, root, 0)
	}
	for i, e := range elements {
		e.Index = i
	}
	if len(elements) == 0 {
		return nil, platform, fmt.Errorf("no elements found in page source")
	}
	return elements, platform, nil
}

// decodeTree returns the top level elements below the platform root
// (<hierarchy> on Android, <AppiumAUT> on iOS).
func decodeTree(xmlData, platform string) ([]*Element, error) {
	dec := xml.NewDecoder(strings.NewReader(xmlData))
	foundRoot := false
	var roots []*Element

	var decode func(start xml.StartElement) (*Element, error)
	decode = func(start xml.StartElement) (*Element, error) {
		elem := newElement(start, platform)
		for {
			tok, err := dec.Token()
			if err != nil {
				return elem, err
			}
			switch t := tok.(type) {
			case xml.StartElement:
				child, err := decode(t)
				if child != nil {
					elem.Children = append(elem.Children, child)
				}
				if err != nil {
					return elem, err
				}
			case xml.EndElement:
				return elem, nil
			}
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(roots) > 0 {
				break
			}
			return nil, fmt.Errorf("parse page source: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local == "hierarchy" || start.Name.Local == "AppiumAUT" {
			foundRoot = true
			continue
		}
		elem, err := decode(start)
		if elem != nil {
			roots = append(roots, elem)
		}
		if err != nil && !errors.Is(err, io.EOF) {
			if len(roots) == 0 {
				return nil, fmt.Errorf("parse page source: %w", err)
			}
			break
		}
	}

	if platform == Android && !foundRoot {
		return nil, fmt.Errorf("invalid page source: no hierarchy element found")
	}
	return roots, nil
}

func newElement(start xml.StartElement, platform string) *Element {
	elem := &Element{
		Class:     start.Name.Local,
		Enabled:   true,
		Displayed: true,
	}
	if platform == IOS {
		applyIOSAttrs(elem, start.Attr)
		elem.Clickable = iosTappable[elem.Class]
		return elem
	}
	applyAndroidAttrs(elem, start.Attr)
	return elem
}

func applyAndroidAttrs(elem *Element, attrs []xml.Attr) {
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "text":
			elem.Text = attr.Value
		case "resource-id":
			elem.ResourceID = attr.Value
		case "content-desc":
			elem.ContentDesc = attr.Value
		case "hint":
			elem.Hint = attr.Value
		case "class":
			elem.Class = attr.Value
		case "bounds":
			elem.Bounds = parseBounds(attr.Value)
		case "enabled":
			elem.Enabled = attr.Value == "true"
		case "displayed":
			elem.Displayed = attr.Value != "false"
		case "selected":
			elem.Selected = attr.Value == "true"
		case "focused":
			elem.Focused = attr.Value == "true"
		case "clickable":
			elem.Clickable = attr.Value == "true"
		case "password":
			elem.Password = attr.Value == "true"
		}
	}
}

func applyIOSAttrs(elem *Element, attrs []xml.Attr) {
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "type":
			elem.Class = attr.Value
		case "name":
			elem.Name = attr.Value
		case "label":
			elem.Label = attr.Value
		case "value":
			elem.Value = attr.Value
		case "placeholderValue":
			elem.Placeholder = attr.Value
		case "enabled":
			elem.Enabled = attr.Value == "true"
		case "visible":
			elem.Displayed = attr.Value == "true"
		case "selected":
			elem.Selected = attr.Value == "true"
		case "focused":
			elem.Focused = attr.Value == "true"
		case "x":
			elem.Bounds.X = atoi(attr.Value)
		case "y":
			elem.Bounds.Y = atoi(attr.Value)
		case "width":
			elem.Bounds.Width = atoi(attr.Value)
		case "height":
			elem.Bounds.Height = atoi(attr.Value)
		}
	}
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func flatten(out []*Element, elem *Element, depth int) []*Element {
	elem.Depth = depth
	out = append(out, elem)
	for _, child := range elem.Children {
		child.Parent = elem
		out = flatten(out, child, depth+1)
	}
	return out
}

// parseBounds parses Android bounds string "[x1,y1][x2,y2]".
func parseBounds(s string) core.Bounds {
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return core.Bounds{}
	}

	x1, y1, x2, y2 := atoi(parts[0]), atoi(parts[1]), atoi(parts[2]), atoi(parts[3])
	return core.Bounds{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}
