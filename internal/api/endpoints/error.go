package endpoints

import "helium-admin-backend/internal/api"

type HTTPError = api.HTTPError
