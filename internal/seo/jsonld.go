package seo

import (
    "encoding/json"
    "html/template"
)

// Meta is the head metadata of a page.
type Meta struct {
    Title       string
    Description string
    Canonical   string
    JSONLD      []template.JS
}

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
    b, err := json.Marshal(v)
    if err != nil {
        return ""
    }
    return string(b)
}

// Script marshals v for use inside a ld+json script element.
func Script(v any) template.JS {
    return template.JS(JSON(v))
}

// Person returns a minimal Person schema for the portfolio owner.
func Person(name, url string, sameAs []string) map[string]any {
    m := map[string]any{
        "@context": "https://schema.org",
        "@type":    "Person",
        "name":     name,
    }
    if url != "" { m["url"] = url }
    if len(sameAs) > 0 { m["sameAs"] = sameAs }
    return m
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url string) map[string]any {
    m := map[string]any{
        "@context": "https://schema.org",
        "@type":    "WebSite",
        "name":     name,
    }
    if url != "" { m["url"] = url }
    return m
}
