package catalog

import (
	"strings"
	"testing"

	"github.com/geofetch/landsat-mirror/common"
)

func TestPreOnly(t *testing.T) {
	scenes := []common.Scene{
		{SceneID: "LT50050131991221KIS00", ProductID: "LT05_L1TP_005013_19910809_20200915_01_T1", Collection: common.Collection1},
		{SceneID: "LT50050131991221KIS00", Collection: common.CollectionPre},
		{SceneID: "LT50050131985221KIS00", Collection: common.CollectionPre},
	}

	preOnly := PreOnly(scenes)
	if len(preOnly) != 1 {
		t.Fatalf("expecting 1, found %d scenes", len(preOnly))
	}
	if preOnly[0].SceneID != "LT50050131985221KIS00" {
		t.Errorf("expecting scene LT50050131985221KIS00, found %s", preOnly[0].SceneID)
	}
}

func TestOnlyCollection(t *testing.T) {
	scenes := []common.Scene{
		{SceneID: "A", Collection: common.Collection1},
		{SceneID: "B", Collection: common.CollectionPre},
		{SceneID: "C", Collection: common.Collection1},
	}
	kept := OnlyCollection(scenes, common.Collection1)
	if len(kept) != 2 {
		t.Fatalf("expecting 2, found %d scenes", len(kept))
	}
	if kept[0].SceneID != "A" || kept[1].SceneID != "C" {
		t.Errorf("unexpected scenes: %s %s", kept[0].SceneID, kept[1].SceneID)
	}
}

func TestBBoxWKT(t *testing.T) {
	wkt, err := BBoxWKT(-47.1, 66.96, -46.98, 67.0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(wkt, "POLYGON") {
		t.Errorf("expecting a polygon, got %s", wkt)
	}
	if _, err := BBoxWKT(10, 10, 9, 11); err == nil {
		t.Error("expecting error for an empty bounding box")
	}
}
