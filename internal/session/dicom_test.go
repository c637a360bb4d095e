package session

import (
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"rtcompare/internal/logger"
)

func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(err)
	}
	return elem
}

func rtstructDataset() dicom.Dataset {
	return dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.StructureSetROISequence, [][]*dicom.Element{
			{
				mustNewElement(tag.ROINumber, []string{"1"}),
				mustNewElement(tag.ROIName, []string{"Heart"}),
			},
			{
				mustNewElement(tag.ROINumber, []string{"2"}),
				mustNewElement(tag.ROIName, []string{"Spinal Cord"}),
			},
		}),
		mustNewElement(tag.ROIContourSequence, [][]*dicom.Element{
			{
				mustNewElement(tag.ReferencedROINumber, []string{"1"}),
				mustNewElement(tag.ROIDisplayColor, []string{"255", "0", "0"}),
				mustNewElement(tag.ContourSequence, [][]*dicom.Element{
					{
						mustNewElement(tag.ContourGeometricType, []string{"CLOSED_PLANAR"}),
						mustNewElement(tag.ContourData, []string{
							"0", "0", "10",
							"20", "0", "10",
							"20", "20", "10",
						}),
					},
					{
						// Degenerate two-point contour, must be dropped.
						mustNewElement(tag.ContourGeometricType, []string{"CLOSED_PLANAR"}),
						mustNewElement(tag.ContourData, []string{"0", "0", "10", "1", "1", "10"}),
					},
				}),
			},
		}),
	}}
}

func TestExtractContourSet(t *testing.T) {
	ds := rtstructDataset()
	set := extractContourSet(&ds)

	group, ok := set["Heart"]
	if !ok {
		t.Fatalf("Heart missing, got %v", set)
	}
	if group.Number != 1 {
		t.Errorf("ROI number: got %d, want 1", group.Number)
	}
	if len(group.Contours) != 1 {
		t.Fatalf("expected only the 3-point contour to survive, got %d", len(group.Contours))
	}
	if len(group.Contours[0].Points) != 3 {
		t.Errorf("expected 3 points, got %d", len(group.Contours[0].Points))
	}
	if z, _ := group.Contours[0].Z(); z != 10 {
		t.Errorf("contour z: got %v, want 10", z)
	}
	if len(group.Color) != 3 || group.Color[0] != 255 {
		t.Errorf("display color not carried: %v", group.Color)
	}

	// Spinal Cord has names but no geometry and must not appear.
	if _, ok := set["Spinal Cord"]; ok {
		t.Error("ROI without contour geometry should be absent")
	}
}

func TestExtractSlice(t *testing.T) {
	const rows, cols = 2, 3
	nativeFrame := frame.NewNativeFrame[uint16](16, rows, cols, rows*cols, 1)
	for i := range nativeFrame.RawData {
		nativeFrame.RawData[i] = uint16(1000 + i)
	}

	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.Rows, []int{rows}),
		mustNewElement(tag.Columns, []int{cols}),
		mustNewElement(tag.RescaleSlope, []string{"1"}),
		mustNewElement(tag.RescaleIntercept, []string{"-1024"}),
		mustNewElement(tag.PixelSpacing, []string{"0.9765625", "0.9765625"}),
		mustNewElement(tag.ImagePositionPatient, []string{"-250", "-250", "42.5"}),
		mustNewElement(tag.SliceLocation, []string{"42.5"}),
		mustNewElement(tag.InstanceNumber, []string{"7"}),
		mustNewElement(tag.PixelData, dicom.PixelDataInfo{
			IsEncapsulated: false,
			Frames:         []*frame.Frame{{Encapsulated: false, NativeData: nativeFrame}},
		}),
	}}

	slice, err := extractSlice(&ds)
	if err != nil {
		t.Fatalf("extractSlice failed: %v", err)
	}

	if slice.Width != cols || slice.Height != rows {
		t.Errorf("dimensions: got %dx%d", slice.Width, slice.Height)
	}
	if len(slice.Pixels) != rows*cols {
		t.Fatalf("pixel count: got %d", len(slice.Pixels))
	}
	// Stored 1000 with intercept -1024 lands at -24 HU.
	if slice.Pixels[0] != -24 {
		t.Errorf("rescale not applied: got %d, want -24", slice.Pixels[0])
	}
	if slice.Z() != 42.5 {
		t.Errorf("slice z: got %v, want 42.5", slice.Z())
	}
	if slice.InstanceNumber != 7 {
		t.Errorf("instance number: got %d", slice.InstanceNumber)
	}
}

func TestCommonStructures(t *testing.T) {
	a := ContourSet{"Heart": {}, "Lung_L": {}, "Lung_R": {}}
	b := ContourSet{"Heart": {}, "Lung_R": {}, "Esophagus": {}}

	got := commonStructures(a, b)
	want := []string{"Heart", "Lung_R"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestStructureSetLabel_Fallback(t *testing.T) {
	labeled := dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.StructureSetLabel, []string{"AutoSeg v2"}),
	}}
	if got := structureSetLabel(&labeled, 1); got != "AutoSeg v2" {
		t.Errorf("got %q", got)
	}

	var empty dicom.Dataset
	if got := structureSetLabel(&empty, 2); got != "RTSTRUCT 2" {
		t.Errorf("fallback label: got %q", got)
	}
}

func TestBuildFromDICOM_EmptyDir(t *testing.T) {
	if _, err := BuildFromDICOM(t.TempDir(), logger.Nop{}); err == nil {
		t.Error("expected error for directory without DICOM files")
	}
}
