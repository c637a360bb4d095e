package session

import (
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"rtcompare/internal/logger"
)

// BuildFromDICOM prepares a viewer session directly from a directory of
// .dcm files: CT slices ordered by patient-axis position plus the first
// two RTSTRUCT files found, compared as set A and set B.
func BuildFromDICOM(dir string, log logger.Logger) (*Session, error) {
	var ctSets, rtSets []dicom.Dataset

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".dcm") {
			return nil
		}

		ds, parseErr := dicom.ParseFile(path, nil)
		if parseErr != nil {
			log.Warning("SessionBuilder", "skipping unreadable file", map[string]interface{}{
				"path":  path,
				"error": parseErr.Error(),
			})
			return nil
		}

		switch elementString(&ds, tag.Modality) {
		case "CT":
			ctSets = append(ctSets, ds)
		case "RTSTRUCT":
			rtSets = append(rtSets, ds)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	if len(ctSets) == 0 {
		return nil, fmt.Errorf("no CT files found in %s", dir)
	}
	if len(rtSets) < 2 {
		return nil, fmt.Errorf("need at least 2 RTSTRUCT files for comparison, found %d", len(rtSets))
	}

	sess := &Session{
		PatientID:        elementString(&ctSets[0], tag.PatientID),
		PatientName:      elementString(&ctSets[0], tag.PatientName),
		StudyUID:         elementString(&ctSets[0], tag.StudyInstanceUID),
		StudyDate:        elementString(&ctSets[0], tag.StudyDate),
		StudyDescription: elementString(&ctSets[0], tag.StudyDescription),
		RT1Label:         structureSetLabel(&rtSets[0], 1),
		RT2Label:         structureSetLabel(&rtSets[1], 2),
		RT1SOPUID:        elementString(&rtSets[0], tag.SOPInstanceUID),
		RT2SOPUID:        elementString(&rtSets[1], tag.SOPInstanceUID),
		RT1Contours:      extractContourSet(&rtSets[0]),
		RT2Contours:      extractContourSet(&rtSets[1]),
		ROIData:          map[string]string{},
	}

	for i := range ctSets {
		slice, sliceErr := extractSlice(&ctSets[i])
		if sliceErr != nil {
			log.Warning("SessionBuilder", "skipping CT slice", map[string]interface{}{
				"error": sliceErr.Error(),
			})
			continue
		}
		sess.Slices = append(sess.Slices, *slice)
	}
	if len(sess.Slices) == 0 {
		return nil, fmt.Errorf("no usable CT pixel data in %s", dir)
	}

	sort.SliceStable(sess.Slices, func(i, j int) bool {
		return sess.Slices[i].Z() < sess.Slices[j].Z()
	})
	for i := range sess.Slices {
		sess.Slices[i].Index = i
	}

	sess.CommonStructures = commonStructures(sess.RT1Contours, sess.RT2Contours)
	for _, name := range sess.CommonStructures {
		// ROI ids come from the review database; standalone DICOM
		// sessions key rows by the ROI number of set A instead.
		sess.ROIData[name] = strconv.Itoa(sess.RT1Contours[name].Number)
	}

	log.Info("SessionBuilder", "session prepared", map[string]interface{}{
		"patient_id":  sess.PatientID,
		"slices":      len(sess.Slices),
		"common_rois": len(sess.CommonStructures),
	})

	return sess, nil
}

func extractSlice(ds *dicom.Dataset) (*Slice, error) {
	rows := elementInt(ds, tag.Rows)
	cols := elementInt(ds, tag.Columns)
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", cols, rows)
	}

	pde, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("no pixel data: %w", err)
	}
	info := dicom.MustGetPixelDataInfo(pde.Value)
	if len(info.Frames) == 0 {
		return nil, fmt.Errorf("pixel data has no frames")
	}
	img, err := info.Frames[0].GetImage()
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	slope, intercept := 1.0, 0.0
	if v := elementFloats(ds, tag.RescaleSlope); len(v) > 0 {
		slope = v[0]
	}
	if v := elementFloats(ds, tag.RescaleIntercept); len(v) > 0 {
		intercept = v[0]
	}

	pixels := make([]int32, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			pixels = append(pixels, int32(float64(storedValue(img, x, y))*slope+intercept))
		}
	}

	slice := &Slice{
		Width:          cols,
		Height:         rows,
		Pixels:         pixels,
		PixelSpacing:   elementFloats(ds, tag.PixelSpacing),
		ImagePosition:  elementFloats(ds, tag.ImagePositionPatient),
		InstanceNumber: elementInt(ds, tag.InstanceNumber),
	}
	if v := elementFloats(ds, tag.SliceLocation); len(v) > 0 {
		slice.SliceLocation = v[0]
	}
	if len(slice.PixelSpacing) < 2 {
		slice.PixelSpacing = []float64{1.0, 1.0}
	}
	return slice, nil
}

func storedValue(img image.Image, x, y int) uint16 {
	if gray, ok := img.(*image.Gray16); ok {
		return gray.Gray16At(x, y).Y
	}
	return color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
}

// extractContourSet walks StructureSetROISequence for names and
// ROIContourSequence for geometry, keeping only polygons with at least
// three points.
func extractContourSet(ds *dicom.Dataset) ContourSet {
	names := map[int]string{}
	if roiSeq, err := ds.FindElementByTag(tag.StructureSetROISequence); err == nil {
		for _, item := range sequenceItems(roiSeq) {
			number := itemInt(item, tag.ROINumber)
			name := itemString(item, tag.ROIName)
			if name != "" {
				names[number] = name
			}
		}
	}

	set := ContourSet{}
	contourSeq, err := ds.FindElementByTag(tag.ROIContourSequence)
	if err != nil {
		return set
	}

	for _, item := range sequenceItems(contourSeq) {
		number := itemInt(item, tag.ReferencedROINumber)
		name, ok := names[number]
		if !ok {
			name = fmt.Sprintf("ROI_%d", number)
		}

		group := ContourGroup{Number: number}
		if colors := itemFloats(item, tag.ROIDisplayColor); len(colors) >= 3 {
			group.Color = colors[:3]
		}

		contours, contourErr := itemElement(item, tag.ContourSequence)
		if contourErr != nil {
			continue
		}
		for _, contourItem := range sequenceItems(contours) {
			data := itemFloats(contourItem, tag.ContourData)
			if len(data) < 9 {
				continue
			}
			contour := Contour{GeometricType: itemString(contourItem, tag.ContourGeometricType)}
			for i := 0; i+2 < len(data); i += 3 {
				contour.Points = append(contour.Points, Point{X: data[i], Y: data[i+1], Z: data[i+2]})
			}
			group.Contours = append(group.Contours, contour)
		}

		if len(group.Contours) > 0 {
			set[name] = group
		}
	}

	return set
}

func commonStructures(a, b ContourSet) []string {
	var common []string
	for name := range a {
		if _, ok := b[name]; ok {
			common = append(common, name)
		}
	}
	sort.Strings(common)
	return common
}

func structureSetLabel(ds *dicom.Dataset, index int) string {
	if label := elementString(ds, tag.StructureSetLabel); label != "" {
		return label
	}
	return fmt.Sprintf("RTSTRUCT %d", index)
}

// Element access helpers. String-typed VRs (DS, IS, LO...) come back
// from the parser as []string; integer VRs as []int.

func elementString(ds *dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	return firstString(elem)
}

func elementInt(ds *dicom.Dataset, t tag.Tag) int {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return 0
	}
	return firstInt(elem)
}

func elementFloats(ds *dicom.Dataset, t tag.Tag) []float64 {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return nil
	}
	return elemFloats(elem)
}

func firstString(elem *dicom.Element) string {
	if values, ok := elem.Value.GetValue().([]string); ok && len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func firstInt(elem *dicom.Element) int {
	switch values := elem.Value.GetValue().(type) {
	case []int:
		if len(values) > 0 {
			return values[0]
		}
	case []string:
		if len(values) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(values[0])); err == nil {
				return n
			}
		}
	}
	return 0
}

func elemFloats(elem *dicom.Element) []float64 {
	switch values := elem.Value.GetValue().(type) {
	case []float64:
		return values
	case []string:
		out := make([]float64, 0, len(values))
		for _, v := range values {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil
			}
			out = append(out, f)
		}
		return out
	case []int:
		out := make([]float64, 0, len(values))
		for _, v := range values {
			out = append(out, float64(v))
		}
		return out
	}
	return nil
}

func sequenceItems(elem *dicom.Element) []*dicom.SequenceItemValue {
	items, ok := elem.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil
	}
	return items
}

func itemElement(item *dicom.SequenceItemValue, t tag.Tag) (*dicom.Element, error) {
	elements, ok := item.GetValue().([]*dicom.Element)
	if !ok {
		return nil, fmt.Errorf("sequence item holds no elements")
	}
	for _, elem := range elements {
		if elem.Tag == t {
			return elem, nil
		}
	}
	return nil, fmt.Errorf("tag %v not in sequence item", t)
}

func itemString(item *dicom.SequenceItemValue, t tag.Tag) string {
	elem, err := itemElement(item, t)
	if err != nil {
		return ""
	}
	return firstString(elem)
}

func itemInt(item *dicom.SequenceItemValue, t tag.Tag) int {
	elem, err := itemElement(item, t)
	if err != nil {
		return 0
	}
	return firstInt(elem)
}

func itemFloats(item *dicom.SequenceItemValue, t tag.Tag) []float64 {
	elem, err := itemElement(item, t)
	if err != nil {
		return nil
	}
	return elemFloats(elem)
}
