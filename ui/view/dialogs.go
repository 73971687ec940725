package view

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

var imageFileTypes = []FileType{
	{TypeName: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff"}},
	{TypeName: "All files", Extensions: []string{"*"}},
}

// PickImageFile opens the native file dialog. It returns "" when the user
// dismisses it. Must run on the Tk thread.
func PickImageFile(context.Context) (string, error) {
	files := GetOpenFile(Title("Pick an image"), Filetypes(imageFileTypes))
	if len(files) == 0 {
		return "", nil
	}
	return strings.TrimSpace(files[0]), nil
}

// ShowMessage displays a modal error box.
func ShowMessage(title, message string) {
	MessageBox(Icon("error"), Title(title), Msg(message))
}

// geomRe matches window geometry strings in the format "WIDTHxHEIGHT+X+Y"
var geomRe = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// parseGeometryWidth extracts the width of a Tk geometry string.
func parseGeometryWidth(g string) (int, bool) {
	m := geomRe.FindStringSubmatch(strings.TrimSpace(g))
	if len(m) != 5 {
		return 0, false
	}
	w, err := strconv.Atoi(m[1])
	if err != nil || w <= 0 {
		return 0, false
	}
	return w, true
}
