// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"fmt"
)

// RunInventory applies action to the compatible containers and returns the
// ones it processed. When the action fails the processed containers are
// returned along with the error.
func RunInventory(ctx context.Context, pass *Pass, action InventoryAction, containers []Container) ([]Container, error) {
	var compatible []Container
	for _, c := range containers {
		if action.Compatible(c) {
			compatible = append(compatible, c)
		}
	}
	if len(compatible) == 0 {
		pass.Logger().Info("no compatible containers", "action", action.Name())
		return nil, nil
	}
	if err := action.Process(ctx, pass, compatible); err != nil {
		return compatible, fmt.Errorf("%s: %w", action.Name(), err)
	}
	return compatible, nil
}
