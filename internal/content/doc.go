// Package content manages the media slots the admin CMS edits: named
// placements on the public site that hold either an uploaded image URL or
// an external video embed. Slots are owned by the editor who created them;
// ownership feeds the API layer's resource access checks.
package content
