package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskflow/internal/service"
)

// resolveID принимает полный id или его уникальный префикс, как он показан в таблице
func resolveID(ctx context.Context, svc *service.TaskService, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", service.NewValidationError("id", "не может быть пустым")
	}

	_, err := svc.Get(ctx, arg)
	if err == nil {
		return arg, nil
	}
	var bErr *service.BusinessError
	if !errors.As(err, &bErr) || bErr.Code != service.CodeNotFound {
		return "", err
	}

	var matches []string
	for _, t := range svc.ListAll(ctx) {
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", err
	case 1:
		return matches[0], nil
	}
	return "", service.NewValidationError("id", fmt.Sprintf("префикс %q подходит к %d задачам", arg, len(matches)))
}
