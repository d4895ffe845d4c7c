package core

import (
	"errors"
	"slices"
	"strconv"

	"github.com/huangsam/hazardtable/schema"
)

// AttachSpectra computes the acceleration uniform hazard spectra of the
// dataset's return periods and stores them on the dataset. Velocity and
// displacement are left out since they follow from acceleration.
func AttachSpectra(ds *schema.HazardDataset, returnPeriods []int) (*BatchDiagnostics, error) {
	if ds == nil || ds.Curves == nil {
		return nil, errors.New("dataset has no hazard curves")
	}
	if len(returnPeriods) > 0 {
		ds.ReturnPeriods = slices.Clone(returnPeriods)
	}
	set, diag, err := BuildSpectra(ds.Curves, ds.ReturnPeriods)
	if err != nil {
		return nil, err
	}
	set.Vel, set.Disp = nil, nil
	ds.Spectra = set

	if ds.Meta == nil {
		ds.Meta = map[string]string{}
	}
	ds.Meta["malformed_curves"] = strconv.Itoa(len(diag.Malformed))
	return diag, nil
}
