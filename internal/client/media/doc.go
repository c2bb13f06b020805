// Package media uploads images for posts. Uploads to Cloudinary are signed by
// the CMS backend (POST /v1/media/sign through the dispatcher); uploads to an
// S3-compatible bucket use static keys from configuration.
package media
